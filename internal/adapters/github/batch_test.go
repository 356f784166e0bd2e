package github

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFetchAllZeroURLs(t *testing.T) {
	client := NewClient(Config{}, zerolog.Nop())
	res := client.FetchAll(t.Context(), nil)
	require.NotNil(t, res)
	require.Empty(t, res)
}

func TestFetchAllOneFailureDoesNotAbortBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `[{"path":%q}]`, r.URL.Path)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/bad", srv.URL + "/c"}
	res := newTestClient(t, srv, nil).FetchAll(t.Context(), urls)

	require.Len(t, res, 3)
	require.Len(t, res[srv.URL+"/a"], 1)
	require.Empty(t, res[srv.URL+"/bad"])
	require.Len(t, res[srv.URL+"/c"], 1)
}

func TestFetchAllRunsConcurrently(t *testing.T) {
	const n = 6
	delay := 200 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		urls = append(urls, fmt.Sprintf("%s/r/%d", srv.URL, i))
	}

	start := time.Now()
	res := newTestClient(t, srv, nil).FetchAll(t.Context(), urls)
	elapsed := time.Since(start)

	require.Len(t, res, n)
	require.Less(t, elapsed, time.Duration(n)*delay/2, "запросы должны выполняться параллельно")
}

func TestFetchAllDeduplicatesURLs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `[1]`)
	}))
	defer srv.Close()

	u := srv.URL + "/same"
	res := newTestClient(t, srv, nil).FetchAll(t.Context(), []string{u, u, u})
	require.Len(t, res, 1)
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchAllRespectsInFlightLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	urls := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		urls = append(urls, fmt.Sprintf("%s/%d", srv.URL, i))
	}
	client := newTestClient(t, srv, func(c *Config) { c.MaxInFlight = 2 })
	require.Len(t, client.FetchAll(t.Context(), urls), 8)
	require.LessOrEqual(t, peak.Load(), int32(2))
}
