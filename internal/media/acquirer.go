// Package media turns remote media references into local, normalized
// artifacts. Acquisition is an explicit ordered list of strategies with a
// uniform contract; the acquirer stops at the first success.
package media

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/woai-art/shorts-news-us/internal/artifact"
	"github.com/woai-art/shorts-news-us/internal/domain"
)

// Strategy is one way of obtaining the bytes behind a reference. Attempt
// writes into destPath; the acquirer owns promotion and post-processing.
type Strategy interface {
	Name() string
	Applies(ref domain.MediaReference) bool
	Attempt(ctx context.Context, ref domain.MediaReference, destPath string) error
}

// Acquirer resolves references against the artifact store using the ordered
// strategy list.
type Acquirer struct {
	store      *artifact.Store
	strategies []Strategy
	logger     *slog.Logger
}

// NewAcquirer wires the store and strategies. Strategy order is the fallback
// order: direct fetch, platform extraction, browser canvas.
func NewAcquirer(store *artifact.Store, logger *slog.Logger, strategies ...Strategy) *Acquirer {
	return &Acquirer{store: store, strategies: strategies, logger: logger}
}

// Acquire downloads and normalizes one reference. It returns the local
// artifact path, or ok=false when every applicable strategy failed; the
// caller drops the reference rather than retrying.
func (a *Acquirer) Acquire(ctx context.Context, ref domain.MediaReference, titleHint string) (string, bool) {
	if ref.RemoteURL == "" {
		return "", false
	}

	final := a.store.Path(titleHint, ref.RemoteURL, finalExtension(ref))
	if a.store.Has(final) {
		a.logger.Debug("artifact already acquired", "path", final)
		return final, true
	}
	// A single-frame GIF finalizes as a letterboxed still, so the .jpg path
	// is the one a previous run may have left behind.
	if ref.Kind == domain.MediaGIF {
		if still := a.store.Path(titleHint, ref.RemoteURL, "jpg"); a.store.Has(still) {
			a.logger.Debug("artifact already acquired", "path", still)
			return still, true
		}
	}

	part := a.store.PartPath(final)
	for _, strategy := range a.strategies {
		if !strategy.Applies(ref) {
			continue
		}

		if err := strategy.Attempt(ctx, ref, part); err != nil {
			a.logger.Debug("acquisition strategy failed",
				"strategy", strategy.Name(), "url", ref.RemoteURL, "error", err)
			a.store.Discard(part)
			continue
		}

		path, err := a.finalize(ref, titleHint, part, final)
		if err != nil {
			a.logger.Warn("artifact post-processing failed",
				"strategy", strategy.Name(), "url", ref.RemoteURL, "error", err)
			a.store.Discard(part)
			continue
		}

		a.logger.Info("media acquired",
			"strategy", strategy.Name(), "url", ref.RemoteURL, "path", path)
		return path, true
	}

	return "", false
}

// finalize normalizes the downloaded bytes into the final artifact. Image
// post-processing is invariant to the strategy that produced the raw bytes.
func (a *Acquirer) finalize(ref domain.MediaReference, titleHint, part, final string) (string, error) {
	switch ref.Kind {
	case domain.MediaVideo:
		if err := a.store.Promote(part, final); err != nil {
			return "", err
		}
		return final, nil

	case domain.MediaGIF:
		animated, err := IsAnimatedGIF(part)
		if err == nil && animated {
			if err := a.store.Promote(part, final); err != nil {
				return "", err
			}
			return final, nil
		}
		// A single-frame GIF is just a poorly labeled image.
		still := a.store.Path(titleHint, ref.RemoteURL, "jpg")
		if err := Letterbox(part, still); err != nil {
			return "", err
		}
		a.store.Discard(part)
		return still, nil

	default:
		if err := Letterbox(part, final); err != nil {
			return "", err
		}
		a.store.Discard(part)
		return final, nil
	}
}

func finalExtension(ref domain.MediaReference) string {
	switch ref.Kind {
	case domain.MediaVideo:
		if ext := urlExtension(ref.RemoteURL); ext != "" {
			return ext
		}
		return "mp4"
	case domain.MediaGIF:
		return "gif"
	default:
		return "jpg"
	}
}

var knownVideoExtensions = map[string]struct{}{
	"mp4": {}, "avi": {}, "mov": {}, "webm": {}, "mkv": {},
}

func urlExtension(rawURL string) string {
	u, err := url.Parse(strings.ToLower(rawURL))
	if err != nil {
		return ""
	}
	idx := strings.LastIndex(u.Path, ".")
	if idx < 0 {
		return ""
	}
	ext := u.Path[idx+1:]
	if _, ok := knownVideoExtensions[ext]; ok {
		return ext
	}
	return ""
}
