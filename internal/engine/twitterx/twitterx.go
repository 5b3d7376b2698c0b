// Package twitterx extracts single posts from x.com and twitter.com. The
// site renders entirely client-side, so the fetcher must supply a
// browser-rendered document.
package twitterx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/engine"
	"github.com/woai-art/shorts-news-us/internal/ports"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

const (
	name       = "twitterx"
	sourceName = "Twitter/X"
	maxImages  = 4
	titleLimit = 120
)

var domains = []string{"twitter.com", "www.twitter.com", "x.com", "www.x.com", "mobile.twitter.com", "mobile.x.com"}

// allowedMediaMarkers whitelists the CDN path segments that carry post media.
// Everything else on twimg (profile avatars, emoji sprites, card icons) is
// decoration.
var allowedMediaMarkers = []string{
	"pbs.twimg.com/media/",
	"pbs.twimg.com/amplify_video_thumb/",
	"pbs.twimg.com/ext_tw_video_thumb/",
	"pbs.twimg.com/tweet_video_thumb/",
	"video.twimg.com/",
}

var deniedMediaMarkers = []string{
	"profile_images",
	"profile_banners",
	"emoji",
	"sprite",
	"icon",
	"abs.twimg.com",
}

// Engine extracts posts from Twitter/X.
type Engine struct {
	fetcher ports.PageFetcher
	policy  validate.Policy
	logger  *slog.Logger
}

// New builds the engine. The fetcher must execute page scripts; a plain HTTP
// fetcher sees only the bootstrap shell.
func New(fetcher ports.PageFetcher, policy validate.Policy, logger *slog.Logger) *Engine {
	return &Engine{fetcher: fetcher, policy: policy, logger: logger}
}

func (e *Engine) Name() string               { return name }
func (e *Engine) SupportedDomains() []string { return domains }

// CanHandle admits only single-post URLs. Profile and search pages have no
// stable content to extract.
func (e *Engine) CanHandle(rawURL string) bool {
	return engine.HostMatches(rawURL, domains) &&
		strings.Contains(strings.ToLower(rawURL), "/status/")
}

// Parse reads the rendered post. The post text serves as both title and body;
// the title is truncated to a headline-sized prefix.
func (e *Engine) Parse(ctx context.Context, rawURL string) (domain.ContentRecord, error) {
	doc, err := e.document(ctx, rawURL)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	record := domain.ContentRecord{
		SourceName:  sourceName,
		ContentType: "social_post",
	}

	tweet := doc.Find(`article[data-testid="tweet"]`).First()
	text := strings.TrimSpace(tweet.Find(`div[data-testid="tweetText"]`).First().Text())
	if text == "" {
		text = strings.TrimSpace(engine.MetaContent(doc, `meta[property="og:description"]`))
	}

	record.BodyText = text
	record.Title = headline(text)
	record.Description = text
	record.Author = strings.TrimSpace(tweet.Find(`div[data-testid="User-Name"] span`).First().Text())
	if record.Author == "" {
		record.Author = authorFromURL(rawURL)
	}

	if record.Empty() {
		e.logger.Warn("no usable content extracted", "engine", name, "url", rawURL)
	}
	return record, nil
}

// ExtractMedia collects post media from the rendered DOM. When the post
// carries a video player, the post URL itself becomes the video reference so
// the external extractor can pull the stream.
func (e *Engine) ExtractMedia(ctx context.Context, rawURL string, record *domain.ContentRecord) error {
	doc, err := e.document(ctx, rawURL)
	if err != nil {
		return err
	}

	tweet := doc.Find(`article[data-testid="tweet"]`).First()

	if tweet.Find(`div[data-testid="videoPlayer"], div[data-testid="videoComponent"]`).Length() > 0 {
		record.Videos = append(record.Videos, domain.MediaReference{
			Kind:      domain.MediaVideo,
			RemoteURL: rawURL,
		})
	}

	tweet.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if !isPostMedia(src) {
			return true
		}
		kind := engine.KindForURL(src)
		if kind == domain.MediaVideo {
			return true
		}
		for _, existing := range record.Images {
			if existing.RemoteURL == src {
				return true
			}
		}
		record.Images = append(record.Images, domain.MediaReference{Kind: kind, RemoteURL: src})
		return len(record.Images) < maxImages
	})

	// Rendered-DOM misses fall back to the card image.
	if len(record.Images) == 0 && len(record.Videos) == 0 {
		for _, u := range engine.MetaImages(doc, rawURL) {
			if isPostMedia(u) {
				record.Images = append(record.Images, domain.MediaReference{
					Kind:      engine.KindForURL(u),
					RemoteURL: u,
				})
				break
			}
		}
	}
	return nil
}

func (e *Engine) Validate(record domain.ContentRecord) validate.Verdict {
	return validate.Check(record, e.policy)
}

// FallbackMedia returns nothing. A post without its own media is not worth
// publishing with stock imagery.
func (e *Engine) FallbackMedia(string) []domain.MediaReference { return nil }

// isPostMedia keeps only twimg URLs under the post-media path segments.
func isPostMedia(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if lower == "" {
		return false
	}
	for _, marker := range deniedMediaMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	for _, marker := range allowedMediaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// headline reduces post text to a single-line title, cutting on a word
// boundary near the limit.
func headline(text string) string {
	line := strings.Join(strings.Fields(text), " ")
	runes := []rune(line)
	if len(runes) <= titleLimit {
		return line
	}
	cutAt := titleLimit
	for i := titleLimit - 1; i > titleLimit/2; i-- {
		if runes[i] == ' ' {
			cutAt = i
			break
		}
	}
	return string(runes[:cutAt]) + "…"
}

// authorFromURL recovers the handle from /<handle>/status/<id>.
func authorFromURL(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	for i, p := range parts {
		if p == "status" && i > 0 {
			return "@" + parts[i-1]
		}
	}
	return ""
}

func (e *Engine) document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	html, err := e.fetcher.HTML(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}
