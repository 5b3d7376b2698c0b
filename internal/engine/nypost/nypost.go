// Package nypost extracts articles from nypost.com using a collector-based
// fetch, which handles the site's redirect chains and cookie handshake better
// than a bare GET.
package nypost

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/engine"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

const (
	name       = "nypost"
	sourceName = "New York Post"
	maxImages  = 3
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var domains = []string{"nypost.com", "www.nypost.com"}

var titleSelectors = []string{
	"h1.headline",
	"h1.article-header__headline",
	"header h1",
	`meta[property="og:title"]`,
	"h1",
}

var bodyHypotheses = []engine.Hypothesis{
	{Container: "div.single__content", MinParagraphs: 2},
	{Container: "div.entry-content", MinParagraphs: 2},
	{Container: "div.article-content", MinParagraphs: 2},
	{Container: "article", MinParagraphs: 2},
	{Container: "body", MinParagraphs: 3, ParagraphFloor: 40},
}

// Engine extracts articles from the New York Post.
type Engine struct {
	policy  validate.Policy
	logger  *slog.Logger
	timeout time.Duration
}

// New builds the engine with its validation policy.
func New(policy validate.Policy, logger *slog.Logger) *Engine {
	return &Engine{policy: policy, logger: logger, timeout: 30 * time.Second}
}

func (e *Engine) Name() string               { return name }
func (e *Engine) SupportedDomains() []string { return domains }

func (e *Engine) CanHandle(rawURL string) bool {
	return engine.HostMatches(rawURL, domains)
}

// Parse visits the article with a fresh collector and extracts title,
// description and body from the landed document.
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
		engine.TitleFromSelectors(doc, titleSelectors), sourceName, "NY Post", "New York Post")
	record.Description = engine.MetaContent(doc,
		`meta[property="og:description"]`, `meta[name="description"]`)
	record.BodyText = engine.BodyText(doc, bodyHypotheses)
	record.Author = strings.TrimSpace(doc.Find("div.byline a, p.byline__author, span.author").First().Text())

	if record.Empty() {
		e.logger.Warn("no usable content extracted", "engine", name, "url", rawURL)
	}
	return record, nil
}

// ExtractMedia gathers metadata images first, then in-body images and
// embedded videos.
func (e *Engine) ExtractMedia(ctx context.Context, rawURL string, record *domain.ContentRecord) error {
	doc, err := e.document(ctx, rawURL)
	if err != nil {
		return err
	}

	images := engine.MetaImages(doc, rawURL)
	scope := doc.Find("div.single__content, article").First()
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

	doc.Find("iframe, video source").Each(func(_ int, el *goquery.Selection) {
		src := engine.AbsoluteURL(rawURL, el.AttrOr("src", ""))
		lower := strings.ToLower(src)
		if strings.Contains(lower, "youtube.com/embed") ||
			strings.Contains(lower, "player.vimeo.com") ||
			strings.HasSuffix(lower, ".mp4") {
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

// FallbackMedia returns a generic city-news image. NY Post records require
// media, so degraded stories fall back here rather than being dropped.
func (e *Engine) FallbackMedia(title string) []domain.MediaReference {
	lower := strings.ToLower(title)
	img := "https://images.unsplash.com/photo-1495020689067-958852a7765e?w=1200&q=80"
	if strings.Contains(lower, "crime") || strings.Contains(lower, "police") {
		img = "https://images.unsplash.com/photo-1453873531674-2151bcd01707?w=1200&q=80"
	}
	return []domain.MediaReference{{Kind: domain.MediaImage, RemoteURL: img}}
}

// document runs a one-shot collector visit and captures the landed HTML as a
// goquery document.
func (e *Engine) document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	c := colly.NewCollector(
		colly.AllowedDomains("nypost.com", "www.nypost.com"),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(e.timeout)

	var doc *goquery.Document
	c.OnHTML("html", func(el *colly.HTMLElement) {
		if el.DOM != nil {
			doc = goquery.NewDocumentFromNode(el.DOM.Nodes[0])
		}
	})
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, visitErr)
	}
	if doc == nil {
		return nil, fmt.Errorf("visit %s: no html document received", rawURL)
	}
	return doc, nil
}
