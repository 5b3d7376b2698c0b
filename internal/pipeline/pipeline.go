// Package pipeline orchestrates a URL's path from submission to stored
// record: dedup, engine resolution, parsing, media acquisition, validation
// and persistence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/engine"
	"github.com/woai-art/shorts-news-us/internal/media"
	"github.com/woai-art/shorts-news-us/internal/ports"
)

// Stage names the pipeline step an outcome was decided at.
type Stage string

const (
	StageDedup    Stage = "dedup"
	StageResolve  Stage = "resolve"
	StageParse    Stage = "parse"
	StageMedia    Stage = "media"
	StageValidate Stage = "validate"
	StageStore    Stage = "store"
)

// Outcome is the terminal result for one submitted URL.
type Outcome struct {
	Accepted bool
	Record   domain.ContentRecord
	Stage    Stage
	Reason   string
	ID       int64
}

// Pipeline wires the registry, acquirer and repository into the processing
// flow.
type Pipeline struct {
	registry      *engine.Registry
	acquirer      *media.Acquirer
	repo          ports.NewsRepository
	logger        *slog.Logger
	allowFallback bool
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithFallbackMedia lets a record failing only its media requirement retry
// with the engine's substitute image set.
func WithFallbackMedia() Option {
	return func(p *Pipeline) { p.allowFallback = true }
}

// New builds the pipeline.
func New(registry *engine.Registry, acquirer *media.Acquirer, repo ports.NewsRepository, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		acquirer: acquirer,
		repo:     repo,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one URL through the full flow. A rejected outcome carries the
// deciding stage and reason; only repository and fetch faults surface as
// errors.
func (p *Pipeline) Process(ctx context.Context, rawURL string) (Outcome, error) {
	rawURL = strings.TrimSpace(rawURL)
	if reason := checkURL(rawURL); reason != "" {
		return Outcome{Stage: StageResolve, Reason: reason}, nil
	}

	// Dedup runs before any network touch so reprocessing a seen URL is free.
	seen, err := p.repo.Exists(ctx, rawURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("dedup check: %w", err)
	}
	if seen {
		p.logger.Info("url already processed", "url", rawURL)
		return Outcome{Stage: StageDedup, Reason: "already processed"}, nil
	}

	eng := p.registry.ResolveURL(rawURL)
	if eng == nil {
		p.logger.Warn("unsupported source", "url", rawURL)
		return Outcome{Stage: StageResolve, Reason: "unsupported source"}, nil
	}

	record, err := eng.Parse(ctx, rawURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse with %s: %w", eng.Name(), err)
	}
	if record.Empty() {
		return Outcome{Stage: StageParse, Reason: "no extractable content"}, nil
	}

	if err := eng.ExtractMedia(ctx, rawURL, &record); err != nil {
		p.logger.Warn("media extraction failed, continuing without media",
			"engine", eng.Name(), "url", rawURL, "error", err)
	}
	p.acquireAll(ctx, &record)

	verdict := eng.Validate(record)
	if !verdict.Accepted && p.allowFallback && verdict.MediaOnlyFailure() {
		p.logger.Info("retrying with fallback media", "engine", eng.Name(), "title", record.Title)
		for _, ref := range eng.FallbackMedia(record.Title) {
			if path, ok := p.acquirer.Acquire(ctx, ref, record.Title); ok {
				ref.LocalPath = path
				if ref.Kind == domain.MediaVideo {
					record.Videos = append(record.Videos, ref)
				} else {
					record.Images = append(record.Images, ref)
				}
			}
		}
		verdict = eng.Validate(record)
	}
	if !verdict.Accepted {
		p.logger.Info("record rejected", "engine", eng.Name(), "url", rawURL, "reason", verdict.Reason())
		return Outcome{Record: record, Stage: StageValidate, Reason: verdict.Reason()}, nil
	}

	normalize(&record)

	id, err := p.repo.Insert(ctx, rawURL, record)
	if err != nil {
		return Outcome{}, fmt.Errorf("store record: %w", err)
	}

	p.logger.Info("record stored",
		"id", id, "engine", eng.Name(), "title", record.Title, "media", record.MediaCount())
	return Outcome{Accepted: true, Record: record, Stage: StageStore, ID: id}, nil
}

// acquireAll downloads every media reference, keeping only the ones that
// landed on disk. A failed reference is dropped, not fatal.
func (p *Pipeline) acquireAll(ctx context.Context, record *domain.ContentRecord) {
	keepImages := record.Images[:0]
	for _, ref := range record.Images {
		if path, ok := p.acquirer.Acquire(ctx, ref, record.Title); ok {
			ref.LocalPath = path
			keepImages = append(keepImages, ref)
		}
	}
	record.Images = keepImages

	keepVideos := record.Videos[:0]
	for _, ref := range record.Videos {
		if path, ok := p.acquirer.Acquire(ctx, ref, record.Title); ok {
			ref.LocalPath = path
			keepVideos = append(keepVideos, ref)
		}
	}
	record.Videos = keepVideos
}

// normalize fills publishable defaults so downstream consumers never see a
// half-empty record.
func normalize(record *domain.ContentRecord) {
	if record.Description == "" {
		record.Description = record.Title
	}
	if record.PublishedAt.IsZero() {
		record.PublishedAt = time.Now().UTC()
	}
	if record.ContentType == "" {
		record.ContentType = "news_article"
	}
}

// checkURL performs syntactic admission before any network or repository
// touch. Empty reason means the URL is acceptable.
func checkURL(rawURL string) string {
	if rawURL == "" {
		return "empty url"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unparsable url"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "unsupported scheme"
	}
	if u.Host == "" {
		return "missing host"
	}
	return ""
}
