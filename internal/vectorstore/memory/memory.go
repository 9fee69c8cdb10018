// Package memory provides an in-memory vector store, used in tests and for
// corpora small enough to re-ingest on every start.
package memory

import (
	"context"
	"sync"

	"sitesearch/internal/domain"
	"sitesearch/internal/vectorstore"
)

var _ vectorstore.Store = (*Store)(nil)

// Store keeps chunks in a map keyed by chunk ID with a secondary index on
// url. All operations are guarded by one RWMutex.
type Store struct {
	mu      sync.RWMutex
	chunks  map[string]domain.Chunk
	byURL   map[string]map[string]struct{}
	claimID string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		chunks: make(map[string]domain.Chunk),
		byURL:  make(map[string]map[string]struct{}),
	}
}

// AddChunks upserts chunks by ID.
func (s *Store) AddChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if old, ok := s.chunks[c.ID]; ok {
			s.unindex(old)
		}
		s.chunks[c.ID] = c
		ids, ok := s.byURL[c.URL]
		if !ok {
			ids = make(map[string]struct{})
			s.byURL[c.URL] = ids
		}
		ids[c.ID] = struct{}{}
	}
	return nil
}

// ChunksByURL returns all chunks for the given url, in no guaranteed order.
func (s *Store) ChunksByURL(_ context.Context, url string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byURL[url]
	out := make([]domain.Chunk, 0, len(ids))
	for id := range ids {
		out = append(out, s.chunks[id])
	}
	return out, nil
}

// AllChunks returns a full scan of the store.
func (s *Store) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c)
	}
	return out, nil
}

// DeleteChunksByURL removes every chunk for the given url.
func (s *Store) DeleteChunksByURL(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.byURL[url] {
		delete(s.chunks, id)
	}
	delete(s.byURL, url)
	return nil
}

// Clear wipes all chunks and the ingestion claim.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]domain.Chunk)
	s.byURL = make(map[string]map[string]struct{})
	s.claimID = ""
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// AcquireIngestClaim claims the one-time ingestion run for runID.
func (s *Store) AcquireIngestClaim(_ context.Context, runID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimID != "" {
		return false, nil
	}
	s.claimID = runID
	return true, nil
}

// ReleaseIngestClaim releases the claim if runID holds it.
func (s *Store) ReleaseIngestClaim(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimID == runID {
		s.claimID = ""
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func (s *Store) unindex(c domain.Chunk) {
	if ids, ok := s.byURL[c.URL]; ok {
		delete(ids, c.ID)
		if len(ids) == 0 {
			delete(s.byURL, c.URL)
		}
	}
}
