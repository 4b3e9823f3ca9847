// Package renderpool manages a fixed-capacity pool of headless browser
// sessions shared by all crawl workers.
//
// Sessions are expensive, so the pool never grows past its capacity and
// hands sessions to blocked acquirers in strict arrival order.
package renderpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/metrics"
)

// ErrPoolClosed is returned to acquirers blocked when the pool shuts down.
var ErrPoolClosed = errors.New("render pool closed")

// RenderResult is the document produced by a render session.
type RenderResult struct {
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Session is one live browser instance.
type Session interface {
	Render(ctx context.Context, rawURL string, timeout time.Duration) (RenderResult, error)
	Healthy() bool
	Close()
}

// Factory creates a fresh Session.
type Factory func(ctx context.Context) (Session, error)

type waiter struct {
	ch chan Session
}

// Pool is a fixed-capacity session pool with FIFO handoff.
//
// A session found unhealthy on release is destroyed and replaced lazily:
// the replacement is spawned only when someone is waiting for it, so a
// releaser never blocks on browser startup.
type Pool struct {
	mu      sync.Mutex
	idle    []Session
	waiters []*waiter
	live    int
	closed  bool

	capacity int
	factory  Factory
	logger   *zap.Logger
}

// New starts capacity sessions up front and returns the pool. A session
// that fails to start is fatal; a partially started pool is torn down.
func New(ctx context.Context, capacity int, factory Factory, logger *zap.Logger) (*Pool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("render pool capacity must be positive, got %d", capacity)
	}
	p := &Pool{
		capacity: capacity,
		factory:  factory,
		logger:   logger,
	}
	for i := 0; i < capacity; i++ {
		s, err := factory(ctx)
		if err != nil {
			p.Shutdown()
			return nil, fmt.Errorf("start render session %d: %w", i, err)
		}
		p.idle = append(p.idle, s)
		p.live++
	}
	metrics.SetRenderSessions(p.live)
	logger.Info("render pool ready", zap.Int("sessions", capacity))
	return p, nil
}

// Acquire returns a session, blocking in FIFO order when all sessions
// are out. It fails when ctx is canceled or the pool shuts down.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return s, nil
	}
	w := &waiter{ch: make(chan Session, 1)}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case s, ok := <-w.ch:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		p.abandon(w)
		return nil, fmt.Errorf("acquire render session: %w", ctx.Err())
	}
}

// abandon removes a canceled waiter. A waiter no longer in the queue
// has been popped by Release or Shutdown, so a send or a close is
// already committed to its channel; wait for it and put any handed-off
// session back.
func (p *Pool) abandon(w *waiter) {
	p.mu.Lock()
	for i, queued := range p.waiters {
		if queued == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			p.mu.Unlock()
			return
		}
	}
	p.mu.Unlock()

	if s, ok := <-w.ch; ok {
		p.Release(s)
	}
}

// Release returns a session to the pool. Unhealthy sessions are
// destroyed; a replacement is started only if acquirers are waiting.
func (p *Pool) Release(s Session) {
	if !s.Healthy() {
		s.Close()
		p.mu.Lock()
		p.live--
		replace := !p.closed && len(p.waiters) > 0 && p.live < p.capacity
		if replace {
			p.live++
		}
		live := p.live
		p.mu.Unlock()
		metrics.SetRenderSessions(live)
		p.logger.Warn("destroyed unhealthy render session", zap.Bool("replacing", replace))
		if replace {
			go p.spawnReplacement()
		}
		return
	}

	p.mu.Lock()
	if p.closed {
		p.live--
		p.mu.Unlock()
		s.Close()
		return
	}
	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		w.ch <- s
		return
	}
	p.idle = append(p.idle, s)
	p.mu.Unlock()
}

func (p *Pool) spawnReplacement() {
	s, err := p.factory(context.Background())
	if err != nil {
		p.mu.Lock()
		p.live--
		live := p.live
		p.mu.Unlock()
		metrics.SetRenderSessions(live)
		p.logger.Error("replacement render session failed to start", zap.Error(err))
		return
	}
	p.Release(s)
}

// Live reports the number of sessions currently alive.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Shutdown closes all idle sessions and fails every blocked acquirer
// with ErrPoolClosed. Sessions still checked out are closed by their
// holders via Release.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	waiters := p.waiters
	p.waiters = nil
	p.live -= len(idle)
	live := p.live
	p.mu.Unlock()

	for _, w := range waiters {
		close(w.ch)
	}
	for _, s := range idle {
		s.Close()
	}
	metrics.SetRenderSessions(live)
	p.logger.Info("render pool shut down")
}
