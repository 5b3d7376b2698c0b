package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

// Engine captures a single source-family implementation (The Hill, ABC News,
// NY Post, Twitter/X, etc.). All engines expose the same contract; per-site
// behavior lives in selector tables, not in the orchestration.
type Engine interface {
	Name() string
	SupportedDomains() []string

	// CanHandle admits a URL by domain membership. Engines with excluded
	// path patterns may still accept a URL carrying an entry identifier
	// that pins it to one stable sub-resource.
	CanHandle(rawURL string) bool

	// Parse fetches and interprets the page. An empty record with a nil
	// error means no structural hypothesis yielded usable text, which is a
	// normal outcome, not a fault.
	Parse(ctx context.Context, rawURL string) (domain.ContentRecord, error)

	// ExtractMedia populates the record's media references from page
	// metadata first, then in-body elements, screened against denylists.
	ExtractMedia(ctx context.Context, rawURL string, record *domain.ContentRecord) error

	// Validate applies the shared content gate plus source-specific policy.
	Validate(record domain.ContentRecord) validate.Verdict

	// FallbackMedia returns a deterministic topic-matched substitute image
	// set for degraded-but-publishable records.
	FallbackMedia(title string) []domain.MediaReference
}

// Registry keeps engines in registration order and resolves which engine
// handles a given URL. It performs no I/O.
type Registry struct {
	engines []Engine
	names   map[string]struct{}
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Register appends an engine. A duplicate name is a configuration error and
// must abort startup.
func (r *Registry) Register(e Engine) error {
	if e == nil {
		return fmt.Errorf("register nil engine")
	}
	if _, ok := r.names[e.Name()]; ok {
		return fmt.Errorf("engine %s is already registered", e.Name())
	}
	r.names[e.Name()] = struct{}{}
	r.engines = append(r.engines, e)
	return nil
}

// ResolveURL returns the first engine in registration order whose CanHandle
// accepts the URL, or nil when the source is unsupported. Unsupported URLs
// must be rejected by the caller, never degraded to a generic scraper.
func (r *Registry) ResolveURL(rawURL string) Engine {
	for _, e := range r.engines {
		if e.CanHandle(rawURL) {
			return e
		}
	}
	return nil
}

// Engines lists registered engines in registration order.
func (r *Registry) Engines() []Engine {
	out := make([]Engine, len(r.engines))
	copy(out, r.engines)
	return out
}

// HostMatches reports whether the URL's host is one of the supported domains.
// Matching is exact on host, so an attacker-controlled "thehill.com.evil.org"
// does not pass.
func HostMatches(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if host == strings.ToLower(d) {
			return true
		}
	}
	return false
}

// QueryHas reports whether the URL carries a non-empty query parameter with
// the given name, case-insensitively on the key.
func QueryHas(rawURL, key string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	key = strings.ToLower(key)
	for k, vs := range u.Query() {
		if strings.ToLower(k) != key {
			continue
		}
		for _, v := range vs {
			if v != "" {
				return true
			}
		}
	}
	return false
}
