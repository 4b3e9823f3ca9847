// Package timeoutctl computes adaptive per-domain fetch timeouts.
//
// Fast domains earn short timeouts, slow domains long ones, and
// consecutive timeouts trigger exponential backoff on the next attempt.
package timeoutctl

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// Timeout is 2.5x the rolling average successful load time.
	averageMultiplier = 2.5
	// Each consecutive timeout inflates the next timeout by 1.5x.
	backoffBase = 1.5
	// Rolling window of successful load samples kept per domain.
	maxSamples = 10
)

type domainStats struct {
	samples             []time.Duration
	current             time.Duration
	consecutiveTimeouts int
}

// Controller tracks per-domain load history and consecutive failures.
type Controller struct {
	mu      sync.Mutex
	domains map[string]*domainStats

	defaultTimeout time.Duration
	minTimeout     time.Duration
	maxTimeout     time.Duration

	logger *zap.Logger
}

// New builds a Controller with the given timeout window.
func New(defaultTimeout, minTimeout, maxTimeout time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		domains:        make(map[string]*domainStats),
		defaultTimeout: defaultTimeout,
		minTimeout:     minTimeout,
		maxTimeout:     maxTimeout,
		logger:         logger,
	}
}

func (c *Controller) stats(domain string) *domainStats {
	st, ok := c.domains[domain]
	if !ok {
		st = &domainStats{current: c.defaultTimeout}
		c.domains[domain] = st
	}
	return st
}

// TimeoutFor returns the timeout to use for the next request to domain,
// including any consecutive-timeout backoff.
func (c *Controller) TimeoutFor(domain string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stats(domain)
	timeout := st.current
	if st.consecutiveTimeouts > 0 {
		backoff := math.Pow(backoffBase, float64(st.consecutiveTimeouts))
		timeout = time.Duration(float64(timeout) * backoff)
		if timeout > c.maxTimeout {
			timeout = c.maxTimeout
		}
	}
	return timeout
}

// ReportSuccess records a successful load, resets the timeout streak and
// recomputes the domain's adaptive timeout from the rolling average.
func (c *Controller) ReportSuccess(domain string, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stats(domain)
	st.consecutiveTimeouts = 0
	st.samples = append(st.samples, elapsed)
	if len(st.samples) > maxSamples {
		st.samples = st.samples[1:]
	}

	var total time.Duration
	for _, s := range st.samples {
		total += s
	}
	avg := total / time.Duration(len(st.samples))

	adaptive := time.Duration(float64(avg) * averageMultiplier)
	if adaptive < c.minTimeout {
		adaptive = c.minTimeout
	}
	if adaptive > c.maxTimeout {
		adaptive = c.maxTimeout
	}
	if diff := adaptive - st.current; diff > 2*time.Second || diff < -2*time.Second {
		c.logger.Info("adaptive timeout updated",
			zap.String("domain", domain),
			zap.Duration("from", st.current),
			zap.Duration("to", adaptive),
		)
	}
	st.current = adaptive
}

// ReportTimeout records a timed-out request, growing the backoff streak.
func (c *Controller) ReportTimeout(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stats(domain)
	st.consecutiveTimeouts++
	c.logger.Warn("fetch timeout",
		zap.String("domain", domain),
		zap.Int("consecutive", st.consecutiveTimeouts),
	)
}

// ConsecutiveTimeouts returns the domain's current timeout streak.
func (c *Controller) ConsecutiveTimeouts(domain string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats(domain).consecutiveTimeouts
}
