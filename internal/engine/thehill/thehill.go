// Package thehill extracts articles from thehill.com.
package thehill

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
	name       = "thehill"
	sourceName = "The Hill"
	maxImages  = 3
)

var domains = []string{"thehill.com", "www.thehill.com"}

var titleSelectors = []string{
	"h1.headline__text",
	"h1.page-title",
	"header h1",
	`meta[property="og:title"]`,
	"h1",
}

var bodyHypotheses = []engine.Hypothesis{
	{Container: "div.article__text", MinParagraphs: 2},
	{Container: "div.body-copy", MinParagraphs: 2},
	{Container: "div.article-body", MinParagraphs: 2},
	{Container: "article", MinParagraphs: 2},
	{Container: "body", MinParagraphs: 3, ParagraphFloor: 40},
}

// fallbackImages maps title keywords to substitute stock imagery used when a
// political story ships without usable media. The table is ordered so the
// same title always resolves to the same image.
var fallbackImages = []struct {
	keyword string
	url     string
}{
	{"congress", "https://images.unsplash.com/photo-1529107386315-e1a2ed48a620?w=1200&q=80"},
	{"senate", "https://images.unsplash.com/photo-1529107386315-e1a2ed48a620?w=1200&q=80"},
	{"president", "https://images.unsplash.com/photo-1541872703-74c5e44368f9?w=1200&q=80"},
	{"white house", "https://images.unsplash.com/photo-1541872703-74c5e44368f9?w=1200&q=80"},
	{"election", "https://images.unsplash.com/photo-1540910419892-4a36d2c3266c?w=1200&q=80"},
	{"vote", "https://images.unsplash.com/photo-1540910419892-4a36d2c3266c?w=1200&q=80"},
	{"court", "https://images.unsplash.com/photo-1589829545856-d10d557cf95f?w=1200&q=80"},
}

const defaultFallbackImage = "https://images.unsplash.com/photo-1495020689067-958852a7765e?w=1200&q=80"

// Engine extracts articles from The Hill.
type Engine struct {
	fetcher ports.PageFetcher
	policy  validate.Policy
	logger  *slog.Logger
}

// New builds the engine around a page fetcher and validation policy.
func New(fetcher ports.PageFetcher, policy validate.Policy, logger *slog.Logger) *Engine {
	return &Engine{fetcher: fetcher, policy: policy, logger: logger}
}

func (e *Engine) Name() string               { return name }
func (e *Engine) SupportedDomains() []string { return domains }

func (e *Engine) CanHandle(rawURL string) bool {
	return engine.HostMatches(rawURL, domains)
}

// Parse fetches the article page and extracts title, description and body.
func (e *Engine) Parse(ctx context.Context, rawURL string) (domain.ContentRecord, error) {
	doc, err := e.document(ctx, rawURL)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	record := domain.ContentRecord{
		SourceName:  sourceName,
		ContentType: "news_article",
	}

	record.Title = engine.CleanTitle(
		engine.TitleFromSelectors(doc, titleSelectors), sourceName, "TheHill")
	record.Description = engine.MetaContent(doc,
		`meta[property="og:description"]`, `meta[name="description"]`)
	record.BodyText = engine.BodyText(doc, bodyHypotheses)
	record.Author = strings.TrimSpace(doc.Find("span.submitted-by a, a.author, span.author").First().Text())

	if record.Empty() {
		e.logger.Warn("no usable content extracted", "engine", name, "url", rawURL)
	}
	return record, nil
}

// ExtractMedia gathers metadata images first, then in-body images and
// embedded player videos.
func (e *Engine) ExtractMedia(ctx context.Context, rawURL string, record *domain.ContentRecord) error {
	doc, err := e.document(ctx, rawURL)
	if err != nil {
		return err
	}

	images := engine.MetaImages(doc, rawURL)
	images = append(images, engine.InlineImages(doc.Find("div.article__text, article").First(), rawURL, maxImages)...)
	for _, u := range engine.SortByImageScore(images) {
		if len(record.Images) >= maxImages {
			break
		}
		record.Images = append(record.Images, domain.MediaReference{
			Kind:      engine.KindForURL(u),
			RemoteURL: u,
		})
	}

	doc.Find("iframe").Each(func(_ int, f *goquery.Selection) {
		src := engine.AbsoluteURL(rawURL, f.AttrOr("src", ""))
		lower := strings.ToLower(src)
		if strings.Contains(lower, "youtube.com/embed") ||
			strings.Contains(lower, "player.vimeo.com") ||
			strings.Contains(lower, "jwplayer") ||
			strings.Contains(lower, "brightcove") {
			record.Videos = append(record.Videos, domain.MediaReference{
				Kind:      domain.MediaVideo,
				RemoteURL: src,
			})
		}
	})
	return nil
}

func (e *Engine) Validate(record domain.ContentRecord) validate.Verdict {
	return validate.Check(record, e.policy)
}

// FallbackMedia picks a topic-matched stock image from the title keywords.
func (e *Engine) FallbackMedia(title string) []domain.MediaReference {
	lower := strings.ToLower(title)
	for _, entry := range fallbackImages {
		if strings.Contains(lower, entry.keyword) {
			return []domain.MediaReference{{Kind: domain.MediaImage, RemoteURL: entry.url}}
		}
	}
	return []domain.MediaReference{{Kind: domain.MediaImage, RemoteURL: defaultFallbackImage}}
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
