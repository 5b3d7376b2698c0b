package pipeline

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woai-art/shorts-news-us/internal/artifact"
	"github.com/woai-art/shorts-news-us/internal/domain"
	"github.com/woai-art/shorts-news-us/internal/engine"
	"github.com/woai-art/shorts-news-us/internal/media"
	"github.com/woai-art/shorts-news-us/internal/storage"
	"github.com/woai-art/shorts-news-us/internal/validate"
)

type fakeEngine struct {
	name     string
	domains  []string
	record   domain.ContentRecord
	media    []domain.MediaReference
	policy   validate.Policy
	fallback []domain.MediaReference

	parseCalls int
}

func (f *fakeEngine) Name() string               { return f.name }
func (f *fakeEngine) SupportedDomains() []string { return f.domains }
func (f *fakeEngine) CanHandle(rawURL string) bool {
	return engine.HostMatches(rawURL, f.domains)
}
func (f *fakeEngine) Parse(context.Context, string) (domain.ContentRecord, error) {
	f.parseCalls++
	return f.record, nil
}
func (f *fakeEngine) ExtractMedia(_ context.Context, _ string, record *domain.ContentRecord) error {
	record.Images = append(record.Images, f.media...)
	return nil
}
func (f *fakeEngine) Validate(record domain.ContentRecord) validate.Verdict {
	return validate.Check(record, f.policy)
}
func (f *fakeEngine) FallbackMedia(string) []domain.MediaReference { return f.fallback }

type stubStrategy struct{}

func (stubStrategy) Name() string                       { return "stub" }
func (stubStrategy) Applies(domain.MediaReference) bool { return true }
func (stubStrategy) Attempt(_ context.Context, _ domain.MediaReference, destPath string) error {
	return os.WriteFile(destPath, []byte("media-bytes"), 0o644)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func goodRecord() domain.ContentRecord {
	return domain.ContentRecord{
		Title:      "Senate advances stopgap funding bill ahead of deadline",
		BodyText:   "The Senate on Thursday advanced a short-term funding measure, setting up a final vote before the end-of-month deadline. Leaders of both parties signaled support.",
		SourceName: "Test Source",
	}
}

func newTestPipeline(t *testing.T, eng engine.Engine, repo *storage.MemoryRepository, opts ...Option) *Pipeline {
	t.Helper()

	store, err := artifact.NewStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	acquirer := media.NewAcquirer(store, testLogger(), stubStrategy{})

	registry := engine.NewRegistry()
	require.NoError(t, registry.Register(eng))

	return New(registry, acquirer, repo, testLogger(), opts...)
}

func TestProcessAcceptsAndStores(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{
		name:    "test",
		domains: []string{"example.com"},
		record:  goodRecord(),
		media:   []domain.MediaReference{{Kind: domain.MediaVideo, RemoteURL: "https://cdn.example.com/clip.mp4"}},
		policy:  validate.Policy{RequireMedia: true},
	}
	repo := storage.NewMemoryRepository()
	p := newTestPipeline(t, eng, repo)

	outcome, err := p.Process(context.Background(), "https://example.com/story")
	require.NoError(t, err)
	require.True(t, outcome.Accepted, "stage %s reason %s", outcome.Stage, outcome.Reason)
	assert.Equal(t, StageStore, outcome.Stage)
	assert.NotZero(t, outcome.ID)

	stored, ok := repo.Record(outcome.ID)
	require.True(t, ok)
	assert.Equal(t, eng.record.Title, stored.Title)
	require.Len(t, stored.Images, 1)
	assert.True(t, stored.Images[0].Resolved(), "stored media must carry a local path")
	assert.NotEmpty(t, stored.Description, "description must default from the title")
	assert.False(t, stored.PublishedAt.IsZero())
}

func TestProcessDedupSkipsBeforeParsing(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{name: "test", domains: []string{"example.com"}, record: goodRecord()}
	repo := storage.NewMemoryRepository()
	_, err := repo.Insert(context.Background(), "https://example.com/story", goodRecord())
	require.NoError(t, err)

	p := newTestPipeline(t, eng, repo)
	outcome, err := p.Process(context.Background(), "https://example.com/story")
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, StageDedup, outcome.Stage)
	assert.Zero(t, eng.parseCalls, "dedup must short-circuit before any fetch")
}

func TestProcessRejectsUnsupportedSource(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{name: "test", domains: []string{"example.com"}}
	p := newTestPipeline(t, eng, storage.NewMemoryRepository())

	outcome, err := p.Process(context.Background(), "https://unknown.org/story")
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, StageResolve, outcome.Stage)
	assert.Equal(t, "unsupported source", outcome.Reason)
}

func TestProcessRejectsBadURLs(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{name: "test", domains: []string{"example.com"}}
	p := newTestPipeline(t, eng, storage.NewMemoryRepository())

	for _, raw := range []string{"", "not a url at all", "ftp://example.com/x", "https://"} {
		outcome, err := p.Process(context.Background(), raw)
		require.NoError(t, err)
		assert.False(t, outcome.Accepted, "url %q must be rejected", raw)
	}
}

func TestProcessRejectsEmptyParse(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{name: "test", domains: []string{"example.com"}}
	p := newTestPipeline(t, eng, storage.NewMemoryRepository())

	outcome, err := p.Process(context.Background(), "https://example.com/story")
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, StageParse, outcome.Stage)
}

func TestProcessRejectsOnValidation(t *testing.T) {
	t.Parallel()

	record := goodRecord()
	record.BodyText = "Please verify you are human by checking your browser before continuing to the requested page."
	eng := &fakeEngine{name: "test", domains: []string{"example.com"}, record: record}
	repo := storage.NewMemoryRepository()
	p := newTestPipeline(t, eng, repo)

	outcome, err := p.Process(context.Background(), "https://example.com/story")
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.Equal(t, StageValidate, outcome.Stage)
	assert.Contains(t, outcome.Reason, "bot challenge")
	assert.Zero(t, repo.Len(), "rejected record must not be stored")
}

func TestProcessFallbackMediaCuresMediaOnlyFailure(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{
		name:     "test",
		domains:  []string{"example.com"},
		record:   goodRecord(),
		policy:   validate.Policy{RequireMedia: true},
		fallback: []domain.MediaReference{{Kind: domain.MediaVideo, RemoteURL: "https://stock.example.com/substitute.mp4"}},
	}
	repo := storage.NewMemoryRepository()

	strict := newTestPipeline(t, eng, repo)
	outcome, err := strict.Process(context.Background(), "https://example.com/no-fallback")
	require.NoError(t, err)
	assert.False(t, outcome.Accepted, "without the option the media gate must reject")

	relaxed := newTestPipeline(t, eng, repo, WithFallbackMedia())
	outcome, err = relaxed.Process(context.Background(), "https://example.com/story")
	require.NoError(t, err)
	require.True(t, outcome.Accepted, "stage %s reason %s", outcome.Stage, outcome.Reason)

	stored, ok := repo.Record(outcome.ID)
	require.True(t, ok)
	require.Len(t, stored.Videos, 1, "a video fallback belongs in the videos list")
	assert.Empty(t, stored.Images)
	assert.Contains(t, stored.Videos[0].RemoteURL, "substitute")
	assert.True(t, stored.Videos[0].Resolved())
}
