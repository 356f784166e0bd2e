package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWatchedRepo(t *testing.T) {
	repo, err := ParseWatchedRepo(" acme / api ")
	require.NoError(t, err)
	require.Equal(t, WatchedRepo{Owner: "acme", Name: "api"}, repo)
	require.Equal(t, "acme/api", repo.String())

	for _, raw := range []string{"", "acme", "acme/", "/api", "acme/api/extra"} {
		_, err := ParseWatchedRepo(raw)
		require.Error(t, err, raw)
	}
}

func TestSlideKindShortTag(t *testing.T) {
	require.Equal(t, "pr", SlideKindPullRequest.ShortTag())
	require.Equal(t, "release", SlideKindRelease.ShortTag())
}

func TestReleaseDisplayTitle(t *testing.T) {
	require.Equal(t, "Spring", Release{Tag: "v1", Name: "Spring"}.DisplayTitle())
	require.Equal(t, "v1", Release{Tag: "v1", Name: "  "}.DisplayTitle())
}

func TestPullRequestMerged(t *testing.T) {
	require.False(t, PullRequest{}.Merged())
	require.True(t, PullRequest{MergedAt: time.Now()}.Merged())
}
