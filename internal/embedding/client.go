package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned for requests made against a closed client.
var ErrClosed = errors.New("embedding: client closed")

// DefaultTimeout bounds a single embedding round-trip.
const DefaultTimeout = 30 * time.Second

type request struct {
	id    uint64
	ctx   context.Context
	texts []string
}

type response struct {
	id      uint64
	vectors [][]float64
	err     error
}

// Client dispatches embedding batches to a single long-lived worker
// goroutine, lazily started on first use. Each request carries a
// monotonically increasing correlation id and is matched to its response
// through an id-keyed pending table, so concurrent callers are safe and
// out-of-order completion cannot cross-deliver results.
type Client struct {
	backend Backend
	timeout time.Duration

	nextID   atomic.Uint64
	requests chan request
	quit     chan struct{}

	start     sync.Once
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[uint64]chan response
}

// Option configures the client.
type Option func(*Client)

// WithTimeout bounds each embedding round-trip. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client around the given backend. Callers construct one
// client and pass it down; nothing here is process-global.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend:  backend,
		timeout:  DefaultTimeout,
		requests: make(chan request),
		quit:     make(chan struct{}),
		pending:  make(map[uint64]chan response),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbedBatch converts texts into vectors, one per input text and in input
// order. Multiple concurrent calls are safe; each is resolved independently.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	select {
	case <-c.quit:
		return nil, ErrClosed
	default:
	}
	c.start.Do(c.run)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	done := make(chan response, 1)
	c.mu.Lock()
	c.pending[id] = done
	c.mu.Unlock()

	select {
	case c.requests <- request{id: id, ctx: ctx, texts: texts}:
	case <-ctx.Done():
		c.drop(id)
		return nil, ctx.Err()
	case <-c.quit:
		c.drop(id)
		return nil, ErrClosed
	}

	select {
	case resp := <-done:
		return resp.vectors, resp.err
	case <-ctx.Done():
		c.drop(id)
		return nil, ctx.Err()
	case <-c.quit:
		c.drop(id)
		return nil, ErrClosed
	}
}

// Embed converts a single text into a vector (a single-item batch).
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding: expected 1 vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

// Close stops the worker. Requests in flight fail with ErrClosed.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
}

func (c *Client) run() {
	go func() {
		for {
			select {
			case req := <-c.requests:
				vectors, err := c.backend.EmbedBatch(req.ctx, req.texts)
				if err == nil && len(vectors) != len(req.texts) {
					err = fmt.Errorf("embedding: backend %s returned %d vectors for %d texts",
						c.backend.Name(), len(vectors), len(req.texts))
					vectors = nil
				}
				c.deliver(response{id: req.id, vectors: vectors, err: err})
			case <-c.quit:
				return
			}
		}
	}()
}

func (c *Client) deliver(resp response) {
	c.mu.Lock()
	done, ok := c.pending[resp.id]
	delete(c.pending, resp.id)
	c.mu.Unlock()
	if ok {
		done <- resp
	}
}

func (c *Client) drop(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
