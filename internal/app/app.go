// Package app wires configuration, adapters and the pipeline into a runnable
// application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/woai-art/shorts-news-us/internal/artifact"
	"github.com/woai-art/shorts-news-us/internal/browser"
	"github.com/woai-art/shorts-news-us/internal/config"
	"github.com/woai-art/shorts-news-us/internal/engine"
	"github.com/woai-art/shorts-news-us/internal/engine/abcnews"
	"github.com/woai-art/shorts-news-us/internal/engine/nypost"
	"github.com/woai-art/shorts-news-us/internal/engine/thehill"
	"github.com/woai-art/shorts-news-us/internal/engine/twitterx"
	"github.com/woai-art/shorts-news-us/internal/fetch"
	"github.com/woai-art/shorts-news-us/internal/media"
	"github.com/woai-art/shorts-news-us/internal/pipeline"
	"github.com/woai-art/shorts-news-us/internal/ports"
	"github.com/woai-art/shorts-news-us/internal/scheduler"
	"github.com/woai-art/shorts-news-us/internal/storage"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

// partRecoveryWindow is how long a leftover partial download must have been
// untouched before a restart promotes or discards it.
const partRecoveryWindow = 10 * time.Minute

// Application owns the wired pipeline and its long-lived resources.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	janitor  *scheduler.ArtifactJanitor
	session  *browser.Session
	pg       *storage.PostgresRepository
}

// New builds the full application from configuration. The caller must Close
// it to release the browser and database.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	store, err := artifact.NewStore(cfg.Media.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}
	store.RecoverParts(partRecoveryWindow)

	app := &Application{cfg: cfg, logger: logger}

	// The browser is optional: without it the Twitter/X engine and the
	// canvas fallback are unavailable but everything else works.
	if cfg.Browser.Enabled {
		session, err := browser.NewSession(cfg.Browser.NavigateTimeout(), logger)
		if err != nil {
			logger.Warn("browser unavailable, continuing without it", "error", err)
		} else {
			app.session = session
		}
	}

	strategies := []media.Strategy{
		media.NewDirect(nil, cfg.Media.MaxImageBytes(), cfg.Media.MaxVideoBytes()),
		media.NewYtdlp(cfg.Media.YtdlpPath, cfg.Media.FfprobePath,
			cfg.Media.YtdlpTimeout(), cfg.Media.MaxVideoDuration(), logger),
	}
	if app.session != nil {
		strategies = append(strategies, media.NewCanvas(app.session))
	}
	acquirer := media.NewAcquirer(store, logger, strategies...)

	registry, err := app.buildRegistry()
	if err != nil {
		app.Close()
		return nil, err
	}

	repo, err := app.buildRepository(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.pipeline = pipeline.New(registry, acquirer, repo, logger, pipeline.WithFallbackMedia())
	app.janitor = scheduler.NewArtifactJanitor(store, cfg.Cleanup.MaxAge(), logger)
	return app, nil
}

func (a *Application) buildRegistry() (*engine.Registry, error) {
	httpFetcher := fetch.NewHTTPFetcher(nil)

	registry := engine.NewRegistry()
	engines := []engine.Engine{
		thehill.New(httpFetcher, a.policy("thehill", true), a.logger),
		abcnews.New(httpFetcher, a.policy("abcnews", false), a.logger),
		nypost.New(a.policy("nypost", true), a.logger),
	}
	if a.session != nil {
		engines = append(engines, twitterx.New(a.session, a.policy("twitterx", true), a.logger))
	} else {
		a.logger.Warn("twitterx engine disabled: no browser session")
	}

	for _, e := range engines {
		if err := registry.Register(e); err != nil {
			return nil, fmt.Errorf("build registry: %w", err)
		}
	}
	return registry, nil
}

func (a *Application) policy(name string, mediaDefault bool) validate.Policy {
	src := a.cfg.Source(name)
	return validate.Policy{
		Limits: validate.Limits{
			TitleMin: src.TitleMin,
			TitleMax: src.TitleMax,
			BodyMin:  src.BodyMin,
			BodyMax:  src.BodyMax,
		},
		RequireMedia: src.MediaMandatory(mediaDefault),
	}
}

func (a *Application) buildRepository(ctx context.Context) (ports.NewsRepository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Info("no database configured, using in-memory repository")
		return storage.NewMemoryRepository(), nil
	}
	pg, err := storage.NewPostgresRepository(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres repository: %w", err)
	}
	a.pg = pg
	return pg, nil
}

// StartJanitor schedules periodic artifact cleanup. Daemon mode only; one-shot
// runs clean up on their own schedule.
func (a *Application) StartJanitor() error {
	return a.janitor.Start(a.cfg.Cleanup.CronExpression)
}

// Process runs one URL through the pipeline.
func (a *Application) Process(ctx context.Context, rawURL string) (pipeline.Outcome, error) {
	return a.pipeline.Process(ctx, rawURL)
}

// ProcessAll runs a batch sequentially, logging per-URL outcomes and
// returning the number accepted.
func (a *Application) ProcessAll(ctx context.Context, urls []string) int {
	accepted := 0
	for _, u := range urls {
		outcome, err := a.pipeline.Process(ctx, u)
		switch {
		case err != nil:
			a.logger.Error("processing failed", "url", u, "error", err)
		case outcome.Accepted:
			accepted++
		default:
			a.logger.Info("url not accepted", "url", u, "stage", outcome.Stage, "reason", outcome.Reason)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return accepted
}

// Close releases the browser session, the cleanup schedule and the database
// pool. Safe to call on a partially constructed application.
func (a *Application) Close() {
	if a.janitor != nil {
		a.janitor.Stop()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.logger.Warn("closing database", "error", err)
		}
	}
}
