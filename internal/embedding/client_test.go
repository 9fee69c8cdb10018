package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend embeds each text as a one-element vector derived from its
// length, so results are easy to match back to their inputs.
type fakeBackend struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{} // when set, EmbedBatch waits for ctx or close
}

func (f *fakeBackend) Name() string    { return "fake" }
func (f *fakeBackend) Dimensions() int { return 1 }

func (f *fakeBackend) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t))}
	}
	return out, nil
}

func TestClient_EmbedBatchPreservesOrder(t *testing.T) {
	c := NewClient(&fakeBackend{})
	defer c.Close()

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float64{1}, vectors[0])
	assert.Equal(t, []float64{2}, vectors[1])
	assert.Equal(t, []float64{3}, vectors[2])
}

func TestClient_EmptyBatch(t *testing.T) {
	backend := &fakeBackend{}
	c := NewClient(backend)
	defer c.Close()

	vectors, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, 0, backend.calls)
}

func TestClient_ConcurrentRequestsResolveIndependently(t *testing.T) {
	c := NewClient(&fakeBackend{})
	defer c.Close()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([][][]float64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := make([]byte, i+1)
			results[i], errs[i] = c.EmbedBatch(context.Background(), []string{string(text)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 1)
		assert.Equal(t, []float64{float64(i + 1)}, results[i][0], "request %d got someone else's response", i)
	}
}

func TestClient_BackendErrorPropagates(t *testing.T) {
	wantErr := errors.New("computation unit exploded")
	c := NewClient(&fakeBackend{err: wantErr})
	defer c.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, wantErr)

	// The worker must still serve later requests after an error.
	_, err = c.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, wantErr)
}

func TestClient_Embed(t *testing.T) {
	c := NewClient(&fakeBackend{})
	defer c.Close()

	vec, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, vec)
}

func TestClient_TimeoutOnHungBackend(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	c := NewClient(&fakeBackend{block: block}, WithTimeout(20*time.Millisecond))
	defer c.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	c := NewClient(&fakeBackend{block: block}, WithTimeout(0))
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Closed(t *testing.T) {
	c := NewClient(&fakeBackend{})
	c.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_CorrelationIDsIncrease(t *testing.T) {
	c := NewClient(&fakeBackend{})
	defer c.Close()

	for i := 0; i < 3; i++ {
		_, err := c.EmbedBatch(context.Background(), []string{fmt.Sprintf("t%d", i)})
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(3), c.nextID.Load())
}
