package twitterx

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

type staticFetcher struct{ html string }

func (f staticFetcher) HTML(context.Context, string) (string, error) { return f.html, nil }

func testEngine(html string) *Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(staticFetcher{html: html}, validate.Policy{RequireMedia: true}, logger)
}

func TestCanHandleOnlyStatusURLs(t *testing.T) {
	t.Parallel()

	e := testEngine("")

	cases := []struct {
		url  string
		want bool
	}{
		{"https://x.com/someuser/status/1234567890", true},
		{"https://twitter.com/someuser/status/1234567890", true},
		{"https://mobile.twitter.com/someuser/status/1234567890", true},
		{"https://x.com/someuser", false},
		{"https://x.com/search?q=news", false},
		{"https://example.com/status/1", false},
	}
	for _, tc := range cases {
		if got := e.CanHandle(tc.url); got != tc.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

const tweetHTML = `<!DOCTYPE html><html><body>
<article data-testid="tweet">
<div data-testid="User-Name"><span>Newsroom Account</span></div>
<div data-testid="tweetText">Officials confirmed the bridge closure will last through the weekend as crews inspect the support structure for damage.</div>
<img src="https://pbs.twimg.com/profile_images/123/avatar.jpg">
<img src="https://pbs.twimg.com/media/AbCdEf?format=jpg&name=large">
</article>
</body></html>`

func TestParseTweet(t *testing.T) {
	t.Parallel()

	e := testEngine(tweetHTML)
	record, err := e.Parse(context.Background(), "https://x.com/newsroom/status/123")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if record.ContentType != "social_post" {
		t.Errorf("content type = %q", record.ContentType)
	}
	if record.Author != "Newsroom Account" {
		t.Errorf("author = %q", record.Author)
	}
	if !strings.Contains(record.BodyText, "bridge closure") {
		t.Errorf("body = %q", record.BodyText)
	}
	if !strings.HasPrefix(record.Title, "Officials confirmed") {
		t.Errorf("title = %q", record.Title)
	}
	if len([]rune(record.Title)) > titleLimit+1 {
		t.Errorf("title exceeds headline limit: %q", record.Title)
	}
}

func TestExtractMediaScreensDecorations(t *testing.T) {
	t.Parallel()

	e := testEngine(tweetHTML)
	record := domain.ContentRecord{}
	if err := e.ExtractMedia(context.Background(), "https://x.com/newsroom/status/123", &record); err != nil {
		t.Fatalf("extract media: %v", err)
	}

	if len(record.Images) != 1 {
		t.Fatalf("images = %v, want only the post photo", record.Images)
	}
	if !strings.Contains(record.Images[0].RemoteURL, "pbs.twimg.com/media/") {
		t.Errorf("unexpected image %q", record.Images[0].RemoteURL)
	}
	if len(record.Videos) != 0 {
		t.Errorf("videos = %v, want none without a player", record.Videos)
	}
}

const videoTweetHTML = `<!DOCTYPE html><html><body>
<article data-testid="tweet">
<div data-testid="tweetText">Watch the full press conference from this afternoon's briefing at the state capitol building.</div>
<div data-testid="videoPlayer"><img src="https://pbs.twimg.com/amplify_video_thumb/1/img/poster.jpg"></div>
</article>
</body></html>`

func TestExtractMediaVideoPost(t *testing.T) {
	t.Parallel()

	postURL := "https://x.com/newsroom/status/456"
	e := testEngine(videoTweetHTML)
	record := domain.ContentRecord{}
	if err := e.ExtractMedia(context.Background(), postURL, &record); err != nil {
		t.Fatalf("extract media: %v", err)
	}

	if len(record.Videos) != 1 {
		t.Fatalf("videos = %v, want the post itself as the video reference", record.Videos)
	}
	if record.Videos[0].RemoteURL != postURL {
		t.Errorf("video reference = %q, want the post URL", record.Videos[0].RemoteURL)
	}
	if record.Videos[0].Kind != domain.MediaVideo {
		t.Errorf("kind = %v", record.Videos[0].Kind)
	}
}

func TestHeadlineMultibyteWordBoundary(t *testing.T) {
	t.Parallel()

	// 3 runes per word, so the limit falls exactly on a word boundary; the
	// multi-byte rune must not skew where the cut lands.
	text := strings.Repeat("né ", 60)
	want := strings.TrimSpace(strings.Repeat("né ", 40)) + "…"
	if got := headline(text); got != want {
		t.Errorf("headline = %q, want %q", got, want)
	}

	short := "Officials confirmed the closure."
	if got := headline(short); got != short {
		t.Errorf("short text must pass through unchanged, got %q", got)
	}
}

func TestIsPostMedia(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want bool
	}{
		{"https://pbs.twimg.com/media/AbC?format=jpg&name=large", true},
		{"https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/clip.mp4", true},
		{"https://pbs.twimg.com/profile_images/123/avatar.jpg", false},
		{"https://abs.twimg.com/emoji/v2/svg/1f600.svg", false},
		{"https://cdn.example.com/photo.jpg", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isPostMedia(tc.url); got != tc.want {
			t.Errorf("isPostMedia(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}
