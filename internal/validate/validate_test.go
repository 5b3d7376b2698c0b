package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

func goodRecord() domain.ContentRecord {
	return domain.ContentRecord{
		Title:    "Senate advances stopgap funding bill ahead of deadline",
		BodyText: "The Senate on Thursday advanced a short-term funding measure, setting up a final vote before the end-of-month deadline. Leaders of both parties signaled the bill has enough support to pass.",
		Images: []domain.MediaReference{
			{Kind: domain.MediaImage, RemoteURL: "https://cdn.example.com/a.jpg", LocalPath: "/tmp/a.jpg"},
		},
	}
}

func TestCheckAcceptsGoodRecord(t *testing.T) {
	t.Parallel()

	verdict := Check(goodRecord(), Policy{RequireMedia: true})
	require.True(t, verdict.Accepted, "reasons: %s", verdict.Reason())
	assert.Empty(t, verdict.Reasons)
}

func TestCheckTitleBand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		title  string
		reason string
	}{
		{"missing", "", "title is missing"},
		{"too short", "Short", "too short"},
		{"too long", strings.Repeat("a", 301), "too long"},
		{"placeholder", "Breaking News", "placeholder"},
		{"raw json", `{"title": "leaked payload"}`, "raw JSON"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := goodRecord()
			record.Title = tc.title
			verdict := Check(record, Policy{})
			require.False(t, verdict.Accepted)
			assert.Contains(t, verdict.Reason(), tc.reason)
		})
	}
}

func TestCheckTitleBandOverride(t *testing.T) {
	t.Parallel()

	record := goodRecord()
	record.Title = "Go!"

	verdict := Check(record, Policy{Limits: Limits{TitleMin: 3}})
	assert.True(t, verdict.Accepted, "reasons: %s", verdict.Reason())
}

func TestCheckBodyGates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		reason string
	}{
		{"missing", "", "body text is missing"},
		{"too short", "Brief.", "too short"},
		{"too long", strings.Repeat("word ", 500), "too long"},
		{"bot challenge", "Please verify you are human by checking your browser before continuing to the site you requested today.", "bot challenge"},
		{"llm placeholder", "Please provide the news article you would like me to summarize and I will get right to work on it.", "llm placeholder"},
		{"few distinct chars", strings.Repeat("ab ab ab ", 10), "distinct"},
		{"mostly symbols", strings.Repeat("@#$%^&*()!? a ", 8), "non-alphanumeric"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := goodRecord()
			record.BodyText = tc.body
			verdict := Check(record, Policy{})
			require.False(t, verdict.Accepted)
			assert.Contains(t, verdict.Reason(), tc.reason)
		})
	}
}

func TestCheckCollectsAllFailures(t *testing.T) {
	t.Parallel()

	verdict := Check(domain.ContentRecord{}, Policy{RequireMedia: true})
	require.False(t, verdict.Accepted)
	assert.GreaterOrEqual(t, len(verdict.Reasons), 3)
}

func TestMediaPolicy(t *testing.T) {
	t.Parallel()

	record := goodRecord()
	record.Images = nil

	optional := Check(record, Policy{RequireMedia: false})
	assert.True(t, optional.Accepted)

	mandatory := Check(record, Policy{RequireMedia: true})
	require.False(t, mandatory.Accepted)
	assert.True(t, mandatory.MediaOnlyFailure())

	// An unresolved reference does not satisfy the media requirement.
	record.Images = []domain.MediaReference{{Kind: domain.MediaImage, RemoteURL: "https://x/a.jpg"}}
	stillMissing := Check(record, Policy{RequireMedia: true})
	assert.False(t, stillMissing.Accepted)
}

func TestMediaOnlyFailure(t *testing.T) {
	t.Parallel()

	record := domain.ContentRecord{Title: "Valid headline of sufficient length"}
	verdict := Check(record, Policy{RequireMedia: true})
	assert.False(t, verdict.MediaOnlyFailure(), "body failures must not be curable by fallback media")
}
