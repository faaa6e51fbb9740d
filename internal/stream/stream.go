// Package stream subscribes to the backend's Server-Sent Events feed and
// forwards every event payload to the frame loop's inbox.
package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"
)

// ErrClosed is returned when opening a closed source.
var ErrClosed = errors.New("stream closed")

const closeWait = 2 * time.Second

// Option configures a Source
type Option func(*Source)

// WithHTTPClient sets the client used for the stream request.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) { s.httpClient = client }
}

// WithMaxRetries bounds reconnect attempts after the stream drops.
func WithMaxRetries(n uint64) Option {
	return func(s *Source) { s.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// Source is a speech source backed by an SSE subscription.
type Source struct {
	url        string
	httpClient *http.Client
	maxRetries uint64
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	opened bool
	closed bool
}

// New creates a source for the stream at url.
func New(url string, opts ...Option) *Source {
	s := &Source{
		url:        url,
		maxRetries: 5,
		logger:     zap.NewNop(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts the subscription in a goroutine. Events are delivered to inbox
// in arrival order; delivery blocks until the frame loop drains the inbox or
// the source is closed.
func (s *Source) Open(ctx context.Context, inbox chan<- []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.opened {
		return nil
	}
	s.opened = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	client := sse.NewClient(s.url)
	if s.httpClient != nil {
		client.Connection = s.httpClient
	}
	client.ReconnectStrategy = &contextBackOff{
		ctx:     ctx,
		backOff: backoff.NewExponentialBackOff(),
		max:     s.maxRetries,
	}
	client.ReconnectNotify = func(err error, next time.Duration) {
		s.logger.Warn("stream dropped, reconnecting", zap.Error(err), zap.Duration("in", next))
	}
	client.OnConnect(func(*sse.Client) {
		s.logger.Info("stream subscribed", zap.String("url", s.url))
	})

	go s.run(ctx, client, inbox)
	return nil
}

func (s *Source) run(ctx context.Context, client *sse.Client, inbox chan<- []byte) {
	defer close(s.done)

	err := client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		if len(msg.Data) == 0 {
			return
		}
		payload := append([]byte(nil), msg.Data...)
		select {
		case inbox <- payload:
		case <-ctx.Done():
		}
	})

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Error("stream ended", zap.Error(err))
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Done is closed when the subscription ends, by Close or by giving up.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// Err returns why the subscription ended on its own, if it did.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription and waits briefly for it to unwind. Safe
// to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	opened := s.opened
	s.mu.Unlock()

	if !opened {
		close(s.done)
		return nil
	}

	cancel()
	select {
	case <-s.done:
	case <-time.After(closeWait):
		s.logger.Warn("stream did not stop in time")
	}
	return nil
}

// contextBackOff stops retrying once the context is done or max retries
// were spent.
type contextBackOff struct {
	ctx     context.Context
	backOff backoff.BackOff
	max     uint64
	tries   uint64
}

func (b *contextBackOff) NextBackOff() time.Duration {
	if b.ctx.Err() != nil {
		return backoff.Stop
	}
	if b.max > 0 && b.tries >= b.max {
		return backoff.Stop
	}
	b.tries++
	return b.backOff.NextBackOff()
}

func (b *contextBackOff) Reset() {
	b.tries = 0
	b.backOff.Reset()
}
