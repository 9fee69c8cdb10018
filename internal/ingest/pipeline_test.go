package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitesearch/internal/vectorstore/memory"
)

const testCorpus = `{
	"version": "1.0",
	"site": {"brand": "Acme", "baseUrl": "https://acme.test"},
	"pages": [
		{
			"pageId": "about",
			"meta": {"title": "About Acme", "path": "/about", "tags": ["company"]},
			"hero": {"heading": "Our Mission", "sub": "We build things for 15 years."},
			"sections": [{"body": "Founded in a garage."}]
		},
		{
			"pageId": "faq",
			"meta": {"title": "FAQ", "path": "/faq"},
			"items": [{"q": "Do you ship?", "a": "Yes, worldwide."}]
		}
	]
}`

type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0600))
	return path
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestIndexIfEmpty(t *testing.T) {
	store := memory.New()
	embed := &stubEmbedder{}
	p := New(writeCorpus(t), store, embed, nil, quietLogger())
	ctx := context.Background()

	res, err := p.IndexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, res.Status)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 1, embed.calls, "all chunks must be embedded in one batch")

	chunks, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	byID := map[string]int{}
	for _, c := range chunks {
		byID[c.ID]++
		assert.NotEmpty(t, c.Vector)
		assert.Positive(t, c.Tokens)
		assert.False(t, c.Meta.IndexedAt.IsZero())
	}
	assert.Equal(t, 1, byID["about::0"])
	assert.Equal(t, 1, byID["faq::0"])

	about, err := store.ChunksByURL(ctx, "https://acme.test/about")
	require.NoError(t, err)
	require.Len(t, about, 1)
	assert.Equal(t, "About Acme", about[0].Title)
	assert.Equal(t, "about", about[0].Meta.PageType)
	assert.Equal(t, []string{"company"}, about[0].Meta.Tags)
	assert.True(t, strings.Contains(about[0].Text, "Our Mission"))
	assert.True(t, strings.Contains(about[0].Text, "We build things for 15 years."))
}

func TestIndexIfEmpty_SecondCallIsNoop(t *testing.T) {
	store := memory.New()
	embed := &stubEmbedder{}
	p := New(writeCorpus(t), store, embed, nil, quietLogger())
	ctx := context.Background()

	_, err := p.IndexIfEmpty(ctx)
	require.NoError(t, err)

	res, err := p.IndexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyIndexed, res.Status)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 1, embed.calls)
}

func TestIndexIfEmpty_FailureLeavesStoreEmptyAndRetryable(t *testing.T) {
	store := memory.New()
	embed := &stubEmbedder{err: errors.New("backend down")}
	p := New(writeCorpus(t), store, embed, nil, quietLogger())
	ctx := context.Background()

	_, err := p.IndexIfEmpty(ctx)
	require.Error(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a failed run must not leave partial chunks")

	// The claim must have been released so a retry can succeed.
	embed.err = nil
	res, err := p.IndexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, res.Status)
}

func TestIndexIfEmpty_ClaimHeldByAnotherRun(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	ok, err := store.AcquireIngestClaim(ctx, "other-run")
	require.NoError(t, err)
	require.True(t, ok)

	embed := &stubEmbedder{}
	p := New(writeCorpus(t), store, embed, nil, quietLogger())

	res, err := p.IndexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyIndexed, res.Status)
	assert.Zero(t, embed.calls)
}

func TestReindex(t *testing.T) {
	store := memory.New()
	embed := &stubEmbedder{}
	p := New(writeCorpus(t), store, embed, nil, quietLogger())
	ctx := context.Background()

	_, err := p.IndexIfEmpty(ctx)
	require.NoError(t, err)

	res, err := p.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, res.Status)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, 2, embed.calls)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIndexIfEmpty_BadCorpus(t *testing.T) {
	store := memory.New()
	p := New(filepath.Join(t.TempDir(), "missing.json"), store, &stubEmbedder{}, nil, quietLogger())

	_, err := p.IndexIfEmpty(context.Background())
	require.Error(t, err)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
