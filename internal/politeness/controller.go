// Package politeness enforces adaptive per-domain request spacing.
//
// Each domain carries its own delay that shrinks on success and grows
// on throttling responses. Callers to the same domain are serialized;
// callers to different domains never wait on each other.
package politeness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Outcome summarizes a request result for delay adaptation.
type Outcome int

// Outcomes reported back to the controller.
const (
	OutcomeSuccess Outcome = iota
	// OutcomeThrottled covers rate-limit (429) and service-unavailable
	// (503) responses, which back off aggressively.
	OutcomeThrottled
	// OutcomeError covers all other failures, which back off moderately.
	OutcomeError
)

const (
	successFactor  = 0.9
	throttleFactor = 2.0
	errorFactor    = 1.5
)

type domainState struct {
	mu    sync.Mutex
	last  time.Time
	delay time.Duration
}

// Controller tracks last-request time and adaptive delay per domain.
type Controller struct {
	mu      sync.Mutex
	domains map[string]*domainState

	defaultDelay time.Duration
	floor        time.Duration
	ceiling      time.Duration

	clock  crawler.Clock
	logger *zap.Logger
}

// New builds a Controller with the given delay bounds.
func New(defaultDelay, floor, ceiling time.Duration, clock crawler.Clock, logger *zap.Logger) *Controller {
	return &Controller{
		domains:      make(map[string]*domainState),
		defaultDelay: defaultDelay,
		floor:        floor,
		ceiling:      ceiling,
		clock:        clock,
		logger:       logger,
	}
}

func (c *Controller) state(domain string) *domainState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.domains[domain]
	if !ok {
		st = &domainState{delay: c.defaultDelay}
		c.domains[domain] = st
	}
	return st
}

// WaitTurn blocks until at least the domain's current delay has elapsed
// since the last request to it, then stamps the new last-request time.
// The domain lock is held for the duration of the wait so same-domain
// callers queue behind each other; other domains are unaffected.
func (c *Controller) WaitTurn(ctx context.Context, domain string) error {
	st := c.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.last.IsZero() {
		wait := st.delay - c.clock.Now().Sub(st.last)
		if wait > 0 {
			c.logger.Debug("politeness wait",
				zap.String("domain", domain),
				zap.Duration("wait", wait),
			)
			if err := pause(ctx, wait); err != nil {
				return fmt.Errorf("politeness wait for %s: %w", domain, err)
			}
		}
	}
	st.last = c.clock.Now()
	return nil
}

// ReportOutcome adjusts the domain's delay: multiplicative decrease on
// success down to the floor, multiplicative increase on throttling or
// errors up to the ceiling.
func (c *Controller) ReportOutcome(domain string, outcome Outcome) {
	st := c.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()

	before := st.delay
	switch outcome {
	case OutcomeSuccess:
		st.delay = maxDuration(c.floor, scale(st.delay, successFactor))
	case OutcomeThrottled:
		st.delay = minDuration(c.ceiling, scale(st.delay, throttleFactor))
		c.logger.Warn("domain throttled, delay increased",
			zap.String("domain", domain),
			zap.Duration("delay", st.delay),
		)
	case OutcomeError:
		st.delay = minDuration(c.ceiling, scale(st.delay, errorFactor))
	}
	if st.delay != before {
		c.logger.Debug("adjusted domain delay",
			zap.String("domain", domain),
			zap.Duration("from", before),
			zap.Duration("to", st.delay),
		)
	}
}

// CurrentDelay returns the domain's adaptive delay.
func (c *Controller) CurrentDelay(domain string) time.Duration {
	st := c.state(domain)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.delay
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func scale(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
