package artifact

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPathIsDeterministic(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	a := store.Path("Senate passes bill", "https://cdn.example.com/img.jpg", "jpg")
	b := store.Path("Senate passes bill", "https://cdn.example.com/img.jpg", "jpg")
	if a != b {
		t.Errorf("same reference produced different paths: %q vs %q", a, b)
	}

	c := store.Path("Senate passes bill", "https://cdn.example.com/other.jpg", "jpg")
	if a == c {
		t.Error("different references collapsed to the same path")
	}

	name := filepath.Base(a)
	if !strings.HasPrefix(name, "Senate_passes_bill") {
		t.Errorf("unexpected artifact name %q", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("missing extension in %q", name)
	}
}

func TestSanitizeTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Senate passes bill", "Senate_passes_bill"},
		{`"Explosive" report: what's next?`, "Explosive_report_wha"},
		{"", "news"},
		{"!!!", "news"},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPromoteAndHas(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	final := store.Path("title", "https://x/a.jpg", "jpg")
	part := store.PartPath(final)

	if store.Has(final) {
		t.Fatal("artifact reported present before creation")
	}
	if err := os.WriteFile(part, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Promote(part, final); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !store.Has(final) {
		t.Error("artifact missing after promote")
	}
	if _, err := os.Stat(part); !os.IsNotExist(err) {
		t.Error("part file survived promotion")
	}
}

func TestRecoverParts(t *testing.T) {
	t.Parallel()

	store := testStore(t)

	stale := filepath.Join(store.Dir(), "stale_11111111.mp4.part")
	if err := os.WriteFile(stale, []byte("complete download"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(store.Dir(), "fresh_22222222.mp4.part")
	if err := os.WriteFile(fresh, []byte("still downloading"), 0o644); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(store.Dir(), "empty_33333333.jpg.part")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(empty, old, old); err != nil {
		t.Fatal(err)
	}

	store.RecoverParts(10 * time.Minute)

	if !store.Has(strings.TrimSuffix(stale, PartSuffix)) {
		t.Error("stable stale part was not promoted")
	}
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Error("fresh part should have been removed, not promoted")
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Error("empty part should have been removed")
	}
	if store.Has(strings.TrimSuffix(empty, PartSuffix)) {
		t.Error("empty part must never be promoted")
	}
}

func TestCleanupOlderThan(t *testing.T) {
	t.Parallel()

	store := testStore(t)

	aged := filepath.Join(store.Dir(), "aged_44444444.jpg")
	if err := os.WriteFile(aged, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-8 * 24 * time.Hour)
	if err := os.Chtimes(aged, old, old); err != nil {
		t.Fatal(err)
	}

	recent := filepath.Join(store.Dir(), "recent_55555555.jpg")
	if err := os.WriteFile(recent, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed := store.CleanupOlderThan(7 * 24 * time.Hour)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(aged); !os.IsNotExist(err) {
		t.Error("aged artifact survived cleanup")
	}
	if !store.Has(recent) {
		t.Error("recent artifact was removed")
	}
}
