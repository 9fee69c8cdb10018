// Package vectorstore defines durable, queryable persistence for chunk
// records.
package vectorstore

import (
	"context"

	"sitesearch/internal/domain"
)

// Store persists chunk records, queryable by identity and by url, with a
// full materialized scan for similarity scoring.
//
// AddChunks upserts by chunk ID: re-adding a chunk with the same ID replaces
// it entirely and never creates a duplicate, which makes ingestion
// idempotent.
type Store interface {
	AddChunks(ctx context.Context, chunks []domain.Chunk) error
	ChunksByURL(ctx context.Context, url string) ([]domain.Chunk, error)
	AllChunks(ctx context.Context) ([]domain.Chunk, error)
	DeleteChunksByURL(ctx context.Context, url string) error
	// Clear wipes all chunks and the ingestion claim.
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)

	// AcquireIngestClaim atomically claims the one-time ingestion run for
	// runID. It returns false when another run already holds the claim, so
	// two concurrent first-time ingesters cannot both proceed.
	AcquireIngestClaim(ctx context.Context, runID string) (bool, error)
	// ReleaseIngestClaim undoes the claim held by runID after a failed run
	// so that a later call can retry. Claims held by other runs are left
	// alone.
	ReleaseIngestClaim(ctx context.Context, runID string) error

	Close() error
}
