package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

// Ytdlp shells out to the yt-dlp binary for platform video URLs that cannot
// be fetched as raw bytes.
type Ytdlp struct {
	binPath     string
	ffprobePath string
	timeout     time.Duration
	maxDuration time.Duration
	logger      *slog.Logger
}

// NewYtdlp builds the strategy around the configured binary paths.
func NewYtdlp(binPath, ffprobePath string, timeout, maxDuration time.Duration, logger *slog.Logger) *Ytdlp {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Ytdlp{
		binPath:     binPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
		maxDuration: maxDuration,
		logger:      logger,
	}
}

func (y *Ytdlp) Name() string { return "ytdlp" }

// Applies accepts platform post and managed-player URLs.
func (y *Ytdlp) Applies(ref domain.MediaReference) bool {
	return ref.Kind == domain.MediaVideo && IsPlatformURL(ref.RemoteURL)
}

// Attempt downloads the platform video into destPath and enforces the
// duration ceiling via ffprobe.
func (y *Ytdlp) Attempt(ctx context.Context, ref domain.MediaReference, destPath string) error {
	runCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	args := []string{
		"--format", "best[ext=mp4]/best",
		"--output", destPath,
		"--no-playlist",
		"--no-warnings",
		"--user-agent", userAgents[0],
	}
	lower := strings.ToLower(ref.RemoteURL)
	if strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com") {
		// The syndication API serves tweet video without authentication.
		args = append(args, "--extractor-args", "twitter:api=syndication")
	}
	if strings.Contains(lower, "apnews.com") || strings.Contains(lower, "ap.org") {
		args = append(args, "--referer", "https://apnews.com/")
	}
	args = append(args, ref.RemoteURL)

	cmd := exec.CommandContext(runCtx, y.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp %s: %w (%s)", ref.RemoteURL, err, firstLine(stderr.String()))
	}

	// yt-dlp writes its own intermediate file next to the target; wait for
	// the output to settle before trusting it.
	if err := y.settleOutput(runCtx, destPath); err != nil {
		return err
	}

	if y.maxDuration > 0 {
		duration, err := y.probeDuration(ctx, destPath)
		if err != nil {
			if y.logger != nil {
				y.logger.Warn("duration probe failed, keeping video", "path", destPath, "error", err)
			}
			return nil
		}
		if duration > y.maxDuration {
			os.Remove(destPath)
			return fmt.Errorf("video duration %s exceeds ceiling %s", duration, y.maxDuration)
		}
	}
	return nil
}

// settleOutput waits for yt-dlp's own .part file to disappear and for the
// final file to stop growing.
func (y *Ytdlp) settleOutput(ctx context.Context, destPath string) error {
	partPath := destPath + ".part"
	var lastSize int64 = -1
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(partPath); os.IsNotExist(err) {
			info, statErr := os.Stat(destPath)
			if statErr != nil {
				return fmt.Errorf("yt-dlp output missing: %w", statErr)
			}
			if info.Size() > 0 && info.Size() == lastSize {
				return nil
			}
			lastSize = info.Size()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	info, err := os.Stat(destPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("yt-dlp output never stabilized for %s", destPath)
	}
	return nil
}

func (y *Ytdlp) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, y.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
