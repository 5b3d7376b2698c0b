// Package abcnews extracts articles and pinned live-blog entries from
// abcnews.go.com.
package abcnews

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
	name       = "abcnews"
	sourceName = "ABC News"
	maxImages  = 3
)

var domains = []string{"abcnews.go.com", "www.abcnews.go.com", "abcnews.com", "www.abcnews.com"}

var titleSelectors = []string{
	`h1[data-testid="prism-headline"]`,
	"h1.Article__Headline__Title",
	"header h1",
	`meta[property="og:title"]`,
	"h1",
}

var bodyHypotheses = []engine.Hypothesis{
	{Container: `div[data-testid="prism-article-body"]`, MinParagraphs: 2},
	{Container: "section.Article__Content", MinParagraphs: 2},
	{Container: "div.article-body", MinParagraphs: 2},
	{Container: "article", MinParagraphs: 2},
	{Container: "body", MinParagraphs: 3, ParagraphFloor: 40},
}

// liveBlogHypotheses targets the single pinned entry a live-updates URL with
// an entry identifier resolves to.
var liveBlogHypotheses = []engine.Hypothesis{
	{Container: `div[data-testid="prism-liveblog-post"]`, MinParagraphs: 1},
	{Container: "div.LiveBlogPost", MinParagraphs: 1},
	{Container: "article", MinParagraphs: 1},
}

// Engine extracts content from ABC News.
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

// CanHandle admits ABC News article URLs. A live-updates URL is a rolling
// feed whose content changes between fetch and validation, so it is refused
// unless an entryId query parameter pins it to one stable entry.
func (e *Engine) CanHandle(rawURL string) bool {
	if !engine.HostMatches(rawURL, domains) {
		return false
	}
	if strings.Contains(strings.ToLower(rawURL), "/live-updates/") {
		return engine.QueryHas(rawURL, "entryId")
	}
	return true
}

// Parse fetches the page and extracts title, description and body. Live-blog
// URLs use the pinned-entry hypothesis table.
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
		engine.TitleFromSelectors(doc, titleSelectors), sourceName, "ABC News")
	record.Description = engine.MetaContent(doc,
		`meta[property="og:description"]`, `meta[name="description"]`)

	hyps := bodyHypotheses
	if strings.Contains(strings.ToLower(rawURL), "/live-updates/") {
		hyps = liveBlogHypotheses
	}
	record.BodyText = engine.BodyText(doc, hyps)
	record.Author = strings.TrimSpace(doc.Find(`div[data-testid="prism-byline"] a, span.Byline__Author`).First().Text())

	if record.Empty() {
		e.logger.Warn("no usable content extracted", "engine", name, "url", rawURL)
	}
	return record, nil
}

// ExtractMedia gathers metadata images, in-body images, and embedded videos.
func (e *Engine) ExtractMedia(ctx context.Context, rawURL string, record *domain.ContentRecord) error {
	doc, err := e.document(ctx, rawURL)
	if err != nil {
		return err
	}

	images := engine.MetaImages(doc, rawURL)
	scope := doc.Find(`div[data-testid="prism-article-body"], article`).First()
	images = append(images, engine.InlineImages(scope, rawURL, maxImages)...)
	for _, u := range engine.SortByImageScore(images) {
		if len(record.Images) >= maxImages {
			break
		}
		record.Images = append(record.Images, domain.MediaReference{
			Kind:      engine.KindForURL(u),
			RemoteURL: u,
		})
	}

	doc.Find("video source, video").Each(func(_ int, v *goquery.Selection) {
		src := engine.AbsoluteURL(rawURL, v.AttrOr("src", ""))
		if src == "" || engine.IsDeniedMediaURL(src) {
			return
		}
		record.Videos = append(record.Videos, domain.MediaReference{
			Kind:      domain.MediaVideo,
			RemoteURL: src,
		})
	})
	return nil
}

func (e *Engine) Validate(record domain.ContentRecord) validate.Verdict {
	return validate.Check(record, e.policy)
}

// FallbackMedia returns a generic newsroom image; ABC News records publish
// without mandatory media, so the fallback is rarely consulted.
func (e *Engine) FallbackMedia(string) []domain.MediaReference {
	return []domain.MediaReference{{
		Kind:      domain.MediaImage,
		RemoteURL: "https://images.unsplash.com/photo-1495020689067-958852a7765e?w=1200&q=80",
	}}
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
