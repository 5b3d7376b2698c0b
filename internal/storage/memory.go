package storage

import (
	"context"
	"sync"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

// MemoryRepository keeps records in process memory. It backs runs without a
// configured database and the test suite.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byURL   map[string]int64
	records map[int64]domain.ContentRecord
}

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:  1,
		byURL:   map[string]int64{},
		records: map[int64]domain.ContentRecord{},
	}
}

func (r *MemoryRepository) Exists(_ context.Context, url string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byURL[url]
	return ok, nil
}

func (r *MemoryRepository) Insert(_ context.Context, url string, record domain.ContentRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.byURL[url] = id
	r.records[id] = record
	return id, nil
}

// Record returns a stored record by id, primarily for tests.
func (r *MemoryRepository) Record(id int64) (domain.ContentRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Len reports the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
