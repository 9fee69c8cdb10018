// Package retrieval ranks stored chunks against a query embedding and shapes
// the winners into citable sources.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"sitesearch/internal/domain"
	"sitesearch/internal/embedding"
	"sitesearch/internal/vectorstore"
)

// Retrieval defaults and caps.
const (
	DefaultTopK     = 8
	DefaultMinScore = 0.3

	maxSources    = 6
	snippetLength = 200
)

// Options tune a single retrieval call. Zero values mean defaults.
type Options struct {
	TopK     int
	MinScore float64
	PageType string
	Tags     []string
}

// Embedder computes the vector for a single query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Engine answers similarity queries over a vector store.
type Engine struct {
	store vectorstore.Store
	embed Embedder
	log   *log.Logger
}

// NewEngine builds a retrieval engine over the given store and embedder.
func NewEngine(store vectorstore.Store, embed Embedder, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{store: store, embed: embed, log: logger}
}

// Retrieve returns up to six sources relevant to the query, best first, at
// most one per url. Failures are logged and reported as an empty result so a
// degraded index never takes the surface down with it.
func (e *Engine) Retrieve(ctx context.Context, query string, opts Options) []domain.Source {
	sources, err := e.retrieve(ctx, query, opts)
	if err != nil {
		e.log.Warn("retrieval failed", "err", err)
		return nil
	}
	return sources
}

func (e *Engine) retrieve(ctx context.Context, query string, opts Options) ([]domain.Source, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}

	vector, err := e.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := e.store.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	chunks = filter(chunks, opts)
	if len(chunks) == 0 {
		return nil, nil
	}

	ranked := embedding.TopK(vector, chunks, opts.TopK)

	seen := make(map[string]struct{}, maxSources)
	sources := make([]domain.Source, 0, maxSources)
	for _, hit := range ranked {
		if hit.Score < opts.MinScore {
			// Ranked is sorted, so everything after is below cutoff too.
			break
		}
		if _, dup := seen[hit.Chunk.URL]; dup {
			continue
		}
		seen[hit.Chunk.URL] = struct{}{}
		sources = append(sources, domain.Source{
			Title:   hit.Chunk.Title,
			URL:     hit.Chunk.URL,
			Score:   hit.Score,
			Snippet: snippet(hit.Chunk.Text),
		})
		if len(sources) == maxSources {
			break
		}
	}
	return sources, nil
}

// filter keeps chunks matching the page type and tag constraints.
func filter(chunks []domain.Chunk, opts Options) []domain.Chunk {
	if opts.PageType == "" && len(opts.Tags) == 0 {
		return chunks
	}
	out := chunks[:0]
	for _, c := range chunks {
		if opts.PageType != "" && c.Meta.PageType != opts.PageType {
			continue
		}
		if len(opts.Tags) > 0 && !anyTag(c.Meta.Tags, opts.Tags) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// anyTag reports whether have and want share at least one tag.
func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// snippet truncates text to the snippet length on a rune boundary, marking
// the cut with an ellipsis.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
