package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newGitHubStub(t *testing.T) *httptest.Server {
	t.Helper()
	merged := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	published := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"number":7,"title":"Add search","merged_at":%q,"user":{"login":"alice"}},
			{"number":8,"title":"Bump deps","merged_at":%q,"user":{"login":"dependabot[bot]"}}]`, merged, merged)
	})
	mux.HandleFunc("/repos/acme/api/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"tag_name":"v2.0.0","name":"","draft":false,"prerelease":false,"published_at":%q}]`, published)
	})
	mux.HandleFunc("/repos/acme/api/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"sha":"a"},{"sha":"b"}]`)
	})
	mux.HandleFunc("/repos/acme/api/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login":"alice","contributions":12}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("GITHUB_API_URL", apiURL)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("REPOS_FILE", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(&out)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCollectPrintsSlides(t *testing.T) {
	srv := newGitHubStub(t)
	setEnv(t, srv.URL)

	out, err := run(t, "collect", "--no-cache", "--repo", "acme/api")
	require.NoError(t, err)

	var payload struct {
		FromCache bool `json:"fromCache"`
		Slides    []struct {
			Kind     string `json:"kind"`
			Title    string `json:"title"`
			Author   string `json:"author"`
			ImageURL string `json:"image_url"`
		} `json:"slides"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.False(t, payload.FromCache)
	require.Len(t, payload.Slides, 2)
	require.Equal(t, "pull_request", payload.Slides[0].Kind)
	require.Equal(t, "alice", payload.Slides[0].Author)
	require.Equal(t, "release", payload.Slides[1].Kind)
	require.Equal(t, "v2.0.0", payload.Slides[1].Title)
	require.Contains(t, payload.Slides[1].ImageURL, "/acme/api/releases/tag/v2.0.0?size=1600")
}

func TestCollectSecondRunUsesCache(t *testing.T) {
	srv := newGitHubStub(t)
	setEnv(t, srv.URL)

	_, err := run(t, "collect", "--repo", "acme/api")
	require.NoError(t, err)
	out, err := run(t, "collect", "--repo", "acme/api")
	require.NoError(t, err)
	require.Contains(t, out, `"fromCache": true`)
}

func TestCollectWithoutToken(t *testing.T) {
	srv := newGitHubStub(t)
	setEnv(t, srv.URL)
	t.Setenv("GITHUB_TOKEN", "")

	_, err := run(t, "collect", "--repo", "acme/api")
	require.Error(t, err)
}

func TestStatsJSON(t *testing.T) {
	srv := newGitHubStub(t)
	setEnv(t, srv.URL)

	out, err := run(t, "stats", "--json", "--no-cache", "--repo", "acme/api")
	require.NoError(t, err)
	require.Contains(t, out, `"commits": 2`)
	require.Contains(t, out, `"login": "alice"`)
}

func TestPlayStopsAfterDuration(t *testing.T) {
	srv := newGitHubStub(t)
	setEnv(t, srv.URL)
	t.Setenv("DISPLAY_IMAGE_BASE_URL", srv.URL+"/img")

	out, err := run(t, "play", "--no-clear", "--duration", "300ms", "--interval", "50ms", "--settle", "10ms", "--repo", "acme/api")
	require.NoError(t, err)
	require.Contains(t, out, "Add search")
	require.Contains(t, out, "RELEASE")
}
