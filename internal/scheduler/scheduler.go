// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/woai-art/shorts-news-us/internal/artifact"
)

// ArtifactJanitor deletes media artifacts older than the retention window on
// a cron schedule.
type ArtifactJanitor struct {
	store  *artifact.Store
	maxAge time.Duration
	cron   *cron.Cron
	logger *slog.Logger
}

// NewArtifactJanitor builds the janitor.
func NewArtifactJanitor(store *artifact.Store, maxAge time.Duration, logger *slog.Logger) *ArtifactJanitor {
	return &ArtifactJanitor{
		store:  store,
		maxAge: maxAge,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start schedules the sweep with the given cron expression and begins
// running it.
func (j *ArtifactJanitor) Start(cronExpr string) error {
	_, err := j.cron.AddFunc(cronExpr, j.sweep)
	if err != nil {
		return fmt.Errorf("schedule artifact cleanup %q: %w", cronExpr, err)
	}
	j.cron.Start()
	j.logger.Info("artifact cleanup scheduled", "cron", cronExpr, "max_age", j.maxAge)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *ArtifactJanitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *ArtifactJanitor) sweep() {
	removed := j.store.CleanupOlderThan(j.maxAge)
	if removed > 0 {
		j.logger.Info("artifact cleanup removed files", "count", removed)
	}
}
