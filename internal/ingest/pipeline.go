// Package ingest turns a site corpus into persisted, embedded chunks.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"sitesearch/internal/chunker"
	"sitesearch/internal/corpus"
	"sitesearch/internal/domain"
	"sitesearch/internal/normalize"
	"sitesearch/internal/vectorstore"
)

// Status reports what an ingestion call did.
type Status string

const (
	StatusIndexed        Status = "indexed"
	StatusAlreadyIndexed Status = "already indexed"
)

// Result summarizes one ingestion call.
type Result struct {
	Status Status
	Chunks int
}

// Embedder computes vectors for a batch of texts.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Pipeline ingests a corpus into a vector store.
type Pipeline struct {
	source  string
	store   vectorstore.Store
	embed   Embedder
	chunker *chunker.Chunker
	log     *log.Logger
}

// New builds a pipeline over the given corpus source, store and embedder.
func New(source string, store vectorstore.Store, embed Embedder, ck *chunker.Chunker, logger *log.Logger) *Pipeline {
	if ck == nil {
		ck = chunker.New(chunker.DefaultMaxTokens, chunker.DefaultOverlap)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{source: source, store: store, embed: embed, chunker: ck, log: logger}
}

// IndexIfEmpty ingests the corpus only when the store holds no chunks yet.
// The run is claimed in the store before any work starts, so concurrent
// callers racing on an empty store still produce exactly one ingestion.
func (p *Pipeline) IndexIfEmpty(ctx context.Context) (Result, error) {
	count, err := p.store.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("counting chunks: %w", err)
	}
	if count > 0 {
		p.log.Debug("store already populated", "chunks", count)
		return Result{Status: StatusAlreadyIndexed, Chunks: count}, nil
	}

	runID := uuid.New().String()
	ok, err := p.store.AcquireIngestClaim(ctx, runID)
	if err != nil {
		return Result{}, fmt.Errorf("acquiring ingest claim: %w", err)
	}
	if !ok {
		p.log.Debug("another run holds the ingest claim")
		count, err := p.store.Count(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("counting chunks: %w", err)
		}
		return Result{Status: StatusAlreadyIndexed, Chunks: count}, nil
	}

	n, err := p.index(ctx)
	if err != nil {
		// Give the claim back so a later call can retry.
		if relErr := p.store.ReleaseIngestClaim(ctx, runID); relErr != nil {
			p.log.Warn("releasing ingest claim after failure", "err", relErr)
		}
		return Result{}, err
	}
	return Result{Status: StatusIndexed, Chunks: n}, nil
}

// Reindex wipes the store and ingests the corpus from scratch.
func (p *Pipeline) Reindex(ctx context.Context) (Result, error) {
	if err := p.store.Clear(ctx); err != nil {
		return Result{}, fmt.Errorf("clearing store: %w", err)
	}

	runID := uuid.New().String()
	ok, err := p.store.AcquireIngestClaim(ctx, runID)
	if err != nil {
		return Result{}, fmt.Errorf("acquiring ingest claim: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("ingest claim taken right after clear")
	}

	n, err := p.index(ctx)
	if err != nil {
		if relErr := p.store.ReleaseIngestClaim(ctx, runID); relErr != nil {
			p.log.Warn("releasing ingest claim after failure", "err", relErr)
		}
		return Result{}, err
	}
	return Result{Status: StatusIndexed, Chunks: n}, nil
}

// index loads the corpus, chunks every page, embeds all chunks in one batch
// and persists them in one bulk upsert. Nothing is written unless every step
// succeeds.
func (p *Pipeline) index(ctx context.Context) (int, error) {
	start := time.Now()

	doc, err := corpus.Load(ctx, p.source)
	if err != nil {
		return 0, err
	}

	chunks := make([]domain.Chunk, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		chunks = append(chunks, p.pageChunks(&page, doc.Site.BaseURL)...)
	}
	if len(chunks) == 0 {
		p.log.Warn("corpus produced no chunks", "pages", len(doc.Pages))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embed.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	if err := p.store.AddChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("storing %d chunks: %w", len(chunks), err)
	}

	p.log.Info("corpus indexed",
		"pages", len(doc.Pages),
		"chunks", len(chunks),
		"took", time.Since(start).Round(time.Millisecond))
	return len(chunks), nil
}

// pageChunks normalizes and splits one page into chunk records without
// vectors.
func (p *Pipeline) pageChunks(page *corpus.Page, baseURL string) []domain.Chunk {
	text := normalize.Text(page.Text())
	if text == "" {
		return nil
	}

	title := page.Meta.Title
	if title == "" {
		title = page.PageID
	}
	url := strings.TrimSuffix(baseURL, "/") + page.Meta.Path
	indexedAt := time.Now().UTC()

	parts := p.chunker.Split(text)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:     fmt.Sprintf("%s::%d", page.PageID, i),
			URL:    url,
			Title:  title,
			Text:   part,
			Tokens: chunker.EstimateTokens(part),
			Meta: domain.Metadata{
				PageID:    page.PageID,
				Path:      page.Meta.Path,
				Title:     title,
				PageType:  page.PageID,
				Tags:      page.Meta.Tags,
				IndexedAt: indexedAt,
			},
		})
	}
	return chunks
}
