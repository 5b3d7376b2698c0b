package engine

import (
	"context"
	"testing"

	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

type stubEngine struct {
	name    string
	domains []string
}

func (s *stubEngine) Name() string               { return s.name }
func (s *stubEngine) SupportedDomains() []string { return s.domains }
func (s *stubEngine) CanHandle(rawURL string) bool {
	return HostMatches(rawURL, s.domains)
}
func (s *stubEngine) Parse(context.Context, string) (domain.ContentRecord, error) {
	return domain.ContentRecord{}, nil
}
func (s *stubEngine) ExtractMedia(context.Context, string, *domain.ContentRecord) error {
	return nil
}
func (s *stubEngine) Validate(domain.ContentRecord) validate.Verdict {
	return validate.Verdict{Accepted: true}
}
func (s *stubEngine) FallbackMedia(string) []domain.MediaReference { return nil }

func TestRegistryResolveURL(t *testing.T) {
	t.Parallel()

	first := &stubEngine{name: "first", domains: []string{"example.com"}}
	second := &stubEngine{name: "second", domains: []string{"example.com", "other.com"}}

	r := NewRegistry()
	if err := r.Register(first); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := r.Register(second); err != nil {
		t.Fatalf("register second: %v", err)
	}

	got := r.ResolveURL("https://example.com/story")
	if got == nil || got.Name() != "first" {
		t.Errorf("expected registration order to win, got %v", got)
	}

	got = r.ResolveURL("https://other.com/story")
	if got == nil || got.Name() != "second" {
		t.Errorf("expected second engine for other.com, got %v", got)
	}

	if r.ResolveURL("https://unknown.org/story") != nil {
		t.Error("expected nil engine for unsupported host")
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(&stubEngine{name: "dup"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&stubEngine{name: "dup"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestHostMatches(t *testing.T) {
	t.Parallel()

	domains := []string{"thehill.com", "www.thehill.com"}

	cases := []struct {
		url  string
		want bool
	}{
		{"https://thehill.com/policy/story", true},
		{"https://www.thehill.com/policy/story", true},
		{"https://THEHILL.com/story", true},
		{"https://thehill.com.evil.org/story", false},
		{"https://sub.thehill.com/story", false},
		{"not a url", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := HostMatches(tc.url, domains); got != tc.want {
			t.Errorf("HostMatches(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestQueryHas(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		key  string
		want bool
	}{
		{"https://abcnews.go.com/live-updates/x?entryId=abc123", "entryId", true},
		{"https://abcnews.go.com/live-updates/x?entryid=abc123", "entryId", true},
		{"https://abcnews.go.com/live-updates/x?entryId=", "entryId", false},
		{"https://abcnews.go.com/live-updates/x", "entryId", false},
		{"https://abcnews.go.com/x?other=1", "entryId", false},
	}
	for _, tc := range cases {
		if got := QueryHas(tc.url, tc.key); got != tc.want {
			t.Errorf("QueryHas(%q, %q) = %v, want %v", tc.url, tc.key, got, tc.want)
		}
	}
}
