package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

// userAgents is the rotated client-identity pool. Some CDNs fingerprint a
// repeated identity across retries, so each attempt presents a different one.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// refererHosts maps URL substrings to the referer that unlocks the asset.
// Wire-service CDNs accept a search-engine referer.
var refererHosts = map[string]string{
	"politico.com": "https://www.politico.com/",
	"thehill.com":  "https://thehill.com/",
	"nypost.com":   "https://nypost.com/",
	"lemde.fr":     "https://www.lemonde.fr/",
	"lemonde.fr":   "https://www.lemonde.fr/",
	"cnn.com":      "https://www.google.com/",
	"reuters.com":  "https://www.google.com/",
	"apnews.com":   "https://apnews.com/",
}

// minImageBytes rejects bodies small enough to be an HTML error page served
// with a 200.
const minImageBytes = 2048

// Direct is the first-line strategy: plain HTTP GET with realistic headers,
// bounded retries and size ceilings enforced before and during download.
type Direct struct {
	client        *http.Client
	maxImageBytes int64
	maxVideoBytes int64
	attempts      int
	backoff       time.Duration
}

// NewDirect builds the strategy. A nil client gets a 30s-timeout default.
func NewDirect(client *http.Client, maxImageBytes, maxVideoBytes int64) *Direct {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Direct{
		client:        client,
		maxImageBytes: maxImageBytes,
		maxVideoBytes: maxVideoBytes,
		attempts:      3,
		backoff:       2 * time.Second,
	}
}

func (d *Direct) Name() string { return "direct" }

// Applies accepts raw http(s) media URLs; platform post URLs need the
// external extractor instead.
func (d *Direct) Applies(ref domain.MediaReference) bool {
	lower := strings.ToLower(ref.RemoteURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return !IsPlatformURL(ref.RemoteURL)
}

// Attempt downloads the reference into destPath, working through the URL
// candidates in order. Transient failures (403, 5xx, network errors) are
// retried with backoff; a terminal failure (404, oversized body) moves on to
// the next candidate.
func (d *Direct) Attempt(ctx context.Context, ref domain.MediaReference, destPath string) error {
	candidates := candidateURLs(ref.RemoteURL)
	ceiling := d.ceilingFor(ref.Kind)

	var lastErr error
	for _, target := range candidates {
		for attempt := 0; attempt < d.attempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(d.backoff):
				}
			}

			err := d.tryOnce(ctx, target, ref.Kind, ceiling, destPath)
			if err == nil {
				return nil
			}
			lastErr = err
			if isTerminal(err) {
				break
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("direct fetch failed for all candidates: %w", lastErr)
}

type terminalError struct{ err error }

func (t terminalError) Error() string { return t.err.Error() }
func (t terminalError) Unwrap() error { return t.err }

func isTerminal(err error) bool {
	_, ok := err.(terminalError)
	return ok
}

func (d *Direct) tryOnce(ctx context.Context, target string, kind domain.MediaKind, ceiling int64, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return terminalError{fmt.Errorf("new request: %w", err)}
	}

	req.Header.Set("User-Agent", userAgents[int(time.Now().UnixNano())%len(userAgents)])
	req.Header.Set("Accept", acceptFor(kind))
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	if referer := refererFor(target); referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request media: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode >= 500:
		return fmt.Errorf("status %d", resp.StatusCode)
	default:
		return terminalError{fmt.Errorf("status %d", resp.StatusCode)}
	}

	// Reject an oversized declaration before pulling the body.
	if resp.ContentLength > 0 && resp.ContentLength > ceiling {
		return terminalError{fmt.Errorf("declared size %d exceeds ceiling %d", resp.ContentLength, ceiling)}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return terminalError{fmt.Errorf("create temp file: %w", err)}
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, ceiling+1))
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("download body: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	if written > ceiling {
		return terminalError{fmt.Errorf("body exceeds ceiling %d", ceiling)}
	}
	if kind != domain.MediaVideo && written < minImageBytes {
		return fmt.Errorf("body too small (%d bytes), likely an error page", written)
	}
	return nil
}

func (d *Direct) ceilingFor(kind domain.MediaKind) int64 {
	if kind == domain.MediaVideo {
		return d.maxVideoBytes
	}
	return d.maxImageBytes
}

func acceptFor(kind domain.MediaKind) string {
	if kind == domain.MediaVideo {
		return "video/mp4,video/*,*/*;q=0.9"
	}
	return "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
}

func refererFor(target string) string {
	lower := strings.ToLower(target)
	for host, referer := range refererHosts {
		if strings.Contains(lower, host) {
			return referer
		}
	}
	return ""
}

// candidateURLs expands a reference into the URL variants worth trying.
// Twitter's image CDN accepts rewritten format/name parameters that often
// succeed where the original rendition 404s.
func candidateURLs(rawURL string) []string {
	urls := []string{rawURL}
	if strings.Contains(strings.ToLower(rawURL), "pbs.twimg.com") {
		base := rawURL
		if idx := strings.Index(base, "?"); idx >= 0 {
			base = base[:idx]
		}
		urls = append(urls,
			base+"?format=jpg&name=large",
			base+"?format=png&name=large",
			base,
		)
	}

	seen := map[string]struct{}{}
	out := urls[:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// platformHosts are post or managed-player URLs that are not raw media and
// need the external extraction utility.
var platformHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"brightcove",
	"apnews.com/video",
	"players.brightcove.net",
}

// IsPlatformURL reports whether the reference is a social-post or
// video-platform URL rather than raw media bytes.
func IsPlatformURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if (strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com")) &&
		strings.Contains(lower, "/status/") {
		return true
	}
	for _, host := range platformHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
