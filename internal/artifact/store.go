// Package artifact manages the on-disk store of downloaded, normalized media.
// Filenames are derived from a hash of the source reference so repeated runs
// reuse existing artifacts instead of duplicating them.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// PartSuffix marks an in-progress download. A .part file is promoted to its
// final name only once complete, or discarded.
const PartSuffix = ".part"

const titlePrefixLimit = 20

// Store is a single flat directory of media artifacts.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path computes the deterministic artifact path for a media reference:
// {sanitizedTitlePrefix}_{referenceHash}.{ext}.
func (s *Store) Path(titleHint, remoteURL, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	name := fmt.Sprintf("%s_%s.%s", SanitizeTitle(titleHint), ReferenceHash(remoteURL), ext)
	return filepath.Join(s.dir, name)
}

// PartPath returns the temp path a download writes to before promotion.
func (s *Store) PartPath(finalPath string) string {
	return finalPath + PartSuffix
}

// Has reports whether a finished artifact already exists at path.
func (s *Store) Has(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Promote renames a completed temp file onto its final path.
func (s *Store) Promote(partPath, finalPath string) error {
	if err := os.Rename(partPath, finalPath); err != nil {
		return fmt.Errorf("promote artifact: %w", err)
	}
	return nil
}

// Discard removes a temp file, tolerating its absence.
func (s *Store) Discard(partPath string) {
	if err := os.Remove(partPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("discard part file", "path", partPath, "error", err)
	}
}

// RecoverParts sweeps leftover .part files from a previous run. Files whose
// size has been stable for the observation window are promoted; the rest are
// removed so a half-written download is never treated as a finished artifact.
func (s *Store) RecoverParts(stableFor time.Duration) {
	parts, err := filepath.Glob(filepath.Join(s.dir, "*"+PartSuffix))
	if err != nil || len(parts) == 0 {
		return
	}

	cutoff := time.Now().Add(-stableFor)
	for _, part := range parts {
		info, err := os.Stat(part)
		if err != nil {
			continue
		}
		final := strings.TrimSuffix(part, PartSuffix)
		if info.Size() > 0 && info.ModTime().Before(cutoff) {
			if err := os.Rename(part, final); err != nil {
				s.logger.Warn("recover part file", "path", part, "error", err)
				continue
			}
			s.logger.Info("recovered stale download", "path", final)
			continue
		}
		s.Discard(part)
	}
}

// CleanupOlderThan removes artifacts older than the retention window and
// returns how many were deleted.
func (s *Store) CleanupOlderThan(age time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("cleanup artifacts", "error", err)
		return 0
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("cleaned up old artifacts", "count", removed)
	}
	return removed
}

// ReferenceHash derives the short content hash used in artifact names from
// the remote reference. Two URLs pointing at the same reference collapse to
// the same artifact.
func ReferenceHash(remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	return hex.EncodeToString(sum[:])[:8]
}

// SanitizeTitle reduces a headline to a short filesystem-safe prefix.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if b.Len() >= titlePrefixLimit {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "news"
	}
	return out
}
