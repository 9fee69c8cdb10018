// Package domain holds the data types shared across the indexing and
// retrieval pipeline.
package domain

import "time"

// Metadata describes where a chunk came from and when it was indexed.
type Metadata struct {
	PageID    string    `json:"pageId"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	PageType  string    `json:"pageType"`
	Tags      []string  `json:"tags,omitempty"`
	IndexedAt time.Time `json:"timestamp"`
}

// Chunk is the atomic unit of indexing and retrieval: a bounded segment of
// normalized source text together with its embedding and metadata. Chunks
// are constructed fully in memory before being persisted and are immutable
// once written; updating content means re-ingesting and upserting by ID.
type Chunk struct {
	ID     string    `json:"id"`
	URL    string    `json:"url"`
	Title  string    `json:"title"`
	Text   string    `json:"chunk"`
	Tokens int       `json:"tokens"`
	Vector []float64 `json:"vector"`
	Meta   Metadata  `json:"metadata"`
}

// Source is a single retrieval result handed to the completion provider.
// Ephemeral, produced per query, never persisted.
type Source struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}
