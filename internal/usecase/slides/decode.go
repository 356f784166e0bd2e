package slides

import (
	"encoding/json"
	"fmt"
	"time"

	"activity-kiosk/internal/domain"
)

type rawPullRequest struct {
	Number   *int    `json:"number"`
	Title    *string `json:"title"`
	MergedAt *string `json:"merged_at"`
	User     *struct {
		Login string `json:"login"`
	} `json:"user"`
}

type rawRelease struct {
	TagName     *string `json:"tag_name"`
	Name        *string `json:"name"`
	PublishedAt *string `json:"published_at"`
	Draft       bool    `json:"draft"`
	Prerelease  bool    `json:"prerelease"`
}

// DecodePullRequest достаёт из ответа GitHub только нужные поля.
// Пустой merged_at означает несмерженный PR, а не ошибку.
func DecodePullRequest(raw json.RawMessage) (domain.PullRequest, error) {
	var rec rawPullRequest
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.PullRequest{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if rec.Number == nil || rec.Title == nil {
		return domain.PullRequest{}, fmt.Errorf("%w: pull request без number или title", domain.ErrMalformedRecord)
	}
	pr := domain.PullRequest{Number: *rec.Number, Title: *rec.Title}
	if rec.User != nil {
		pr.Author = rec.User.Login
	}
	mergedAt, err := parseOptionalTime(rec.MergedAt)
	if err != nil {
		return domain.PullRequest{}, fmt.Errorf("%w: merged_at: %v", domain.ErrMalformedRecord, err)
	}
	pr.MergedAt = mergedAt
	return pr, nil
}

// DecodeRelease достаёт из ответа GitHub только нужные поля релиза.
func DecodeRelease(raw json.RawMessage) (domain.Release, error) {
	var rec rawRelease
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Release{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if rec.TagName == nil || *rec.TagName == "" {
		return domain.Release{}, fmt.Errorf("%w: релиз без tag_name", domain.ErrMalformedRecord)
	}
	rel := domain.Release{Tag: *rec.TagName, Draft: rec.Draft, Prerelease: rec.Prerelease}
	if rec.Name != nil {
		rel.Name = *rec.Name
	}
	publishedAt, err := parseOptionalTime(rec.PublishedAt)
	if err != nil {
		return domain.Release{}, fmt.Errorf("%w: published_at: %v", domain.ErrMalformedRecord, err)
	}
	rel.PublishedAt = publishedAt
	return rel, nil
}

func parseOptionalTime(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
