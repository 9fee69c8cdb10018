// Package sqlite provides a durable vector store backed by a single SQLite
// database file. Embeddings are stored as little-endian float64 blobs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"sitesearch/internal/domain"
	"sitesearch/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	tokens     INTEGER NOT NULL,
	embedding  BLOB,
	page_id    TEXT NOT NULL,
	path       TEXT NOT NULL,
	page_type  TEXT NOT NULL,
	tags       TEXT NOT NULL DEFAULT '[]',
	indexed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_chunks_url ON chunks(url);
CREATE INDEX IF NOT EXISTS idx_chunks_page_type ON chunks(page_type);
CREATE INDEX IF NOT EXISTS idx_chunks_indexed_at ON chunks(indexed_at);

CREATE TABLE IF NOT EXISTS ingest_claim (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	run_id     TEXT NOT NULL,
	claimed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const chunkColumns = "id, url, title, content, tokens, embedding, page_id, path, page_type, tags, indexed_at"

var _ vectorstore.Store = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at dataDir/chunks.db. If dataDir is
// empty it defaults to ~/.sitesearch/data.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sitesearch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")

	// WAL mode keeps readers live while ingestion writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AddChunks upserts chunks by ID inside a single transaction.
func (s *Store) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			content = excluded.content,
			tokens = excluded.tokens,
			embedding = excluded.embedding,
			page_id = excluded.page_id,
			path = excluded.path,
			page_type = excluded.page_type,
			tags = excluded.tags,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		tagsJSON, err := json.Marshal(chunk.Meta.Tags)
		if err != nil {
			return fmt.Errorf("marshalling tags: %w", err)
		}

		embeddingBlob := float64SliceToBytes(chunk.Vector)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.URL, chunk.Title, chunk.Text,
			chunk.Tokens, embeddingBlob, chunk.Meta.PageID, chunk.Meta.Path,
			chunk.Meta.PageType, string(tagsJSON), chunk.Meta.IndexedAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ChunksByURL returns all chunks stored for the given url.
func (s *Store) ChunksByURL(ctx context.Context, url string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE url = ?", url)
	if err != nil {
		return nil, fmt.Errorf("querying chunks by url: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// AllChunks returns every chunk in the store.
func (s *Store) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+" FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteChunksByURL removes every chunk for the given url.
func (s *Store) DeleteChunksByURL(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE url = ?", url); err != nil {
		return fmt.Errorf("deleting chunks by url: %w", err)
	}
	return nil
}

// Clear wipes all chunks and the ingestion claim.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM ingest_claim"); err != nil {
		return fmt.Errorf("clearing ingest claim: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// AcquireIngestClaim claims the one-time ingestion run for runID. The claim
// table holds at most one row, so INSERT OR IGNORE makes the claim atomic.
func (s *Store) AcquireIngestClaim(ctx context.Context, runID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO ingest_claim (id, run_id) VALUES (1, ?)", runID)
	if err != nil {
		return false, fmt.Errorf("acquiring ingest claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking ingest claim: %w", err)
	}
	return n == 1, nil
}

// ReleaseIngestClaim releases the claim if runID holds it.
func (s *Store) ReleaseIngestClaim(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM ingest_claim WHERE id = 1 AND run_id = ?", runID); err != nil {
		return fmt.Errorf("releasing ingest claim: %w", err)
	}
	return nil
}

// scanChunks reads chunk rows into domain chunks.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var tagsJSON string
		var indexedAt sql.NullTime

		if err := rows.Scan(&chunk.ID, &chunk.URL, &chunk.Title, &chunk.Text,
			&chunk.Tokens, &embeddingBlob, &chunk.Meta.PageID, &chunk.Meta.Path,
			&chunk.Meta.PageType, &tagsJSON, &indexedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Vector = bytesToFloat64Slice(embeddingBlob)
		if err := json.Unmarshal([]byte(tagsJSON), &chunk.Meta.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
		if indexedAt.Valid {
			chunk.Meta.IndexedAt = indexedAt.Time
		}
		chunk.Meta.Title = chunk.Title

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// float64SliceToBytes converts a []float64 to a byte slice for storage.
func float64SliceToBytes(floats []float64) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// bytesToFloat64Slice converts a byte slice back to []float64.
func bytesToFloat64Slice(data []byte) []float64 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats
}
