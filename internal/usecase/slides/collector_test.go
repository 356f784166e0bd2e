package slides

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-kiosk/internal/domain"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// stubFetcher отвечает по суффиксу пути (owner/repo/pulls, owner/repo/releases).
type stubFetcher struct {
	bodies   map[string]string
	captured []string
}

func (s *stubFetcher) FetchAll(_ context.Context, urls []string) map[string][]json.RawMessage {
	s.captured = append([]string(nil), urls...)
	out := make(map[string][]json.RawMessage, len(urls))
	for _, u := range urls {
		out[u] = []json.RawMessage{}
		for key, body := range s.bodies {
			if strings.Contains(u, "/repos/"+key+"?") {
				var items []json.RawMessage
				if err := json.Unmarshal([]byte(body), &items); err != nil {
					panic(err)
				}
				out[u] = items
			}
		}
	}
	return out
}

func ago(d time.Duration) string {
	return testNow.Add(-d).Format(time.RFC3339)
}

func pr(number int, login string, mergedAgo time.Duration) string {
	return fmt.Sprintf(`{"number":%d,"title":"PR %d","merged_at":%q,"user":{"login":%q}}`, number, number, ago(mergedAgo), login)
}

func release(tag, name string, publishedAgo time.Duration, draft, pre bool) string {
	return fmt.Sprintf(`{"tag_name":%q,"name":%q,"published_at":%q,"draft":%t,"prerelease":%t}`, tag, name, ago(publishedAgo), draft, pre)
}

func newTestCollector(f domain.BatchFetcher, mutate func(*Options)) *Collector {
	opts := Options{BaseURL: "https://api.example.test"}
	if mutate != nil {
		mutate(&opts)
	}
	return NewCollector(f, opts, zerolog.Nop())
}

func TestCollectScenarioOnlyHumanMergedPR(t *testing.T) {
	day := 24 * time.Hour
	f := &stubFetcher{bodies: map[string]string{
		"acme/bots/pulls":    "[" + pr(1, "dependabot[bot]", 2*day) + "]",
		"acme/lib/releases":  "[" + release("v2.0.0-rc1", "RC", 3*day, false, true) + "]",
		"acme/app/pulls":     "[" + pr(7, "alice", day) + "]",
		"acme/app/releases":  "[]",
		"acme/bots/releases": "[]",
		"acme/lib/pulls":     "[]",
	}}
	repos := []domain.WatchedRepo{{Owner: "acme", Name: "bots"}, {Owner: "acme", Name: "lib"}, {Owner: "acme", Name: "app"}}

	got := newTestCollector(f, nil).Collect(t.Context(), repos, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, domain.SlideKindPullRequest, got[0].Kind)
	assert.Equal(t, "app", got[0].Repo)
	assert.Equal(t, 7, got[0].Number)
	assert.Equal(t, "alice", got[0].Author)
	require.Len(t, f.captured, 6, "один пакет из 2×N запросов")
}

func TestCollectBuildsGitHubURLs(t *testing.T) {
	f := &stubFetcher{}
	newTestCollector(f, nil).Collect(t.Context(), []domain.WatchedRepo{{Owner: "acme", Name: "app"}}, testNow)

	require.Equal(t, []string{
		"https://api.example.test/repos/acme/app/pulls?state=closed&per_page=50&sort=updated&direction=desc",
		"https://api.example.test/repos/acme/app/releases?per_page=10",
	}, f.captured)
}

func TestCollectPullRequestFilters(t *testing.T) {
	day := 24 * time.Hour
	f := &stubFetcher{bodies: map[string]string{
		"acme/app/pulls": "[" + strings.Join([]string{
			pr(1, "alice", day),
			pr(2, "github-actions[bot]", day),
			`{"number":3,"title":"closed unmerged","merged_at":null,"user":{"login":"bob"}}`,
			`{"number":4,"title":"empty merged","merged_at":"","user":{"login":"bob"}}`,
			pr(5, "carol", 8*day),
			`{"title":"no number","merged_at":"` + ago(day) + `"}`,
			`"not an object"`,
			`{"number":6,"title":"bad date","merged_at":"yesterday"}`,
			pr(7, "dave", 7*day),
			`{"number":8,"title":"ghost","merged_at":"` + ago(2*day) + `","user":null}`,
		}, ",") + "]",
	}}

	got := newTestCollector(f, nil).Collect(t.Context(), []domain.WatchedRepo{{Owner: "acme", Name: "app"}}, testNow)

	var numbers []int
	for _, s := range got {
		numbers = append(numbers, s.Number)
	}
	require.Equal(t, []int{1, 8, 7}, numbers)
}

func TestCollectReleaseFilters(t *testing.T) {
	day := 24 * time.Hour
	f := &stubFetcher{bodies: map[string]string{
		"acme/app/releases": "[" + strings.Join([]string{
			release("v1.2.0", "Spring", day, false, false),
			release("v1.2.0-beta", "", 2*day, false, true),
			release("v1.3.0", "", 3*day, true, false),
			release("v1.1.0", "", 3*day, false, false),
			`{"tag_name":"v0.9","published_at":null}`,
			release("v1.0.0", "Old", 10*day, false, false),
			`{"name":"no tag","published_at":"` + ago(day) + `"}`,
		}, ",") + "]",
	}}

	got := newTestCollector(f, nil).Collect(t.Context(), []domain.WatchedRepo{{Owner: "acme", Name: "app"}}, testNow)

	require.Len(t, got, 2)
	assert.Equal(t, "v1.2.0", got[0].Tag)
	assert.Equal(t, "Spring", got[0].Title)
	assert.Equal(t, "v1.1.0", got[1].Tag)
	assert.Equal(t, "v1.1.0", got[1].Title, "пустое имя заменяется тегом")
}

func TestCollectLatestReleaseOnly(t *testing.T) {
	day := 24 * time.Hour
	f := &stubFetcher{bodies: map[string]string{
		"acme/app/releases": "[" + release("v1.1.0", "", 3*day, false, false) + "," + release("v1.2.0", "", day, false, false) + "]",
		"acme/lib/releases": "[" + release("v0.1.0", "", 2*day, false, false) + "]",
	}}
	repos := []domain.WatchedRepo{{Owner: "acme", Name: "app"}, {Owner: "acme", Name: "lib"}}

	latest := newTestCollector(f, func(o *Options) { o.LatestReleaseOnly = true }).Collect(t.Context(), repos, testNow)
	require.Len(t, latest, 2)
	assert.Equal(t, "v1.2.0", latest[0].Tag)
	assert.Equal(t, "v0.1.0", latest[1].Tag)

	all := newTestCollector(f, nil).Collect(t.Context(), repos, testNow)
	require.Len(t, all, 3)
}

func TestCollectSortsDescendingAcrossRepos(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"acme/a/pulls":    "[" + pr(1, "x", 5*time.Hour) + "," + pr(2, "x", 50*time.Hour) + "]",
		"acme/b/pulls":    "[" + pr(3, "y", time.Hour) + "]",
		"acme/b/releases": "[" + release("v1", "", 20*time.Hour, false, false) + "]",
	}}
	repos := []domain.WatchedRepo{{Owner: "acme", Name: "a"}, {Owner: "acme", Name: "b"}}

	got := newTestCollector(f, nil).Collect(t.Context(), repos, testNow)

	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		require.False(t, got[i].Timestamp.After(got[i-1].Timestamp), "слайд %d новее предыдущего", i)
	}
	assert.Equal(t, 3, got[0].Number)
	assert.Equal(t, "v1", got[2].Tag)
}

func TestCollectEmptyIsNotNil(t *testing.T) {
	got := newTestCollector(&stubFetcher{}, nil).Collect(t.Context(), []domain.WatchedRepo{{Owner: "a", Name: "b"}}, testNow)
	require.NotNil(t, got)
	require.Empty(t, got)

	got = newTestCollector(&stubFetcher{}, nil).Collect(t.Context(), nil, testNow)
	require.Empty(t, got)
}

func TestCollectCustomDenyList(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"acme/app/pulls": "[" + pr(1, "renovate[bot]", time.Hour) + "," + pr(2, "dependabot[bot]", time.Hour) + "]",
	}}
	got := newTestCollector(f, func(o *Options) { o.DenyAuthors = []string{"renovate[bot]"} }).
		Collect(t.Context(), []domain.WatchedRepo{{Owner: "acme", Name: "app"}}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Number)
}
