// Package fetch turns routed fetch requests into tagged outcomes.
//
// Every attempt pays the domain's politeness delay first, runs under
// the domain's adaptive timeout, and reports its result back to both
// controllers exactly once.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
	"github.com/lexfind/contact-crawler/internal/metrics"
	"github.com/lexfind/contact-crawler/internal/politeness"
	"github.com/lexfind/contact-crawler/internal/renderpool"
	"github.com/lexfind/contact-crawler/internal/timeoutctl"
)

var _ crawler.Fetcher = (*Fetcher)(nil)

// Fetcher executes requests via the lightweight client or the render
// pool and classifies the result.
type Fetcher struct {
	light    *Lightweight
	pool     *renderpool.Pool
	spacing  *politeness.Controller
	timeouts *timeoutctl.Controller
	clock    crawler.Clock
	logger   *zap.Logger
}

// New wires the fetcher to its collaborators.
func New(light *Lightweight, pool *renderpool.Pool, spacing *politeness.Controller, timeouts *timeoutctl.Controller, clock crawler.Clock, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		light:    light,
		pool:     pool,
		spacing:  spacing,
		timeouts: timeouts,
		clock:    clock,
		logger:   logger,
	}
}

// Fetch performs exactly one network attempt.
func (f *Fetcher) Fetch(ctx context.Context, req crawler.FetchRequest, method crawler.Method) crawler.FetchOutcome {
	domain := crawler.DomainOf(req.URL)

	waitStart := f.clock.Now()
	if err := f.spacing.WaitTurn(ctx, domain); err != nil {
		return crawler.FetchOutcome{
			URL:     req.URL,
			Method:  method,
			Failure: crawler.FailTransport,
			Err:     err,
		}
	}
	metrics.ObservePolitenessWait(domain, f.clock.Now().Sub(waitStart))

	timeout := f.timeouts.TimeoutFor(domain)
	start := f.clock.Now()

	var (
		statusCode int
		finalURL   string
		body       []byte
		err        error
	)
	switch method {
	case crawler.MethodRender:
		statusCode, finalURL, body, err = f.render(ctx, req.URL, timeout)
	default:
		statusCode, finalURL, body, err = f.light.Get(ctx, req.URL, timeout)
	}
	elapsed := f.clock.Now().Sub(start)

	outcome := crawler.FetchOutcome{
		URL:        req.URL,
		Method:     method,
		StatusCode: statusCode,
		Body:       body,
		Elapsed:    elapsed,
		Err:        err,
	}
	if finalURL != "" {
		outcome.URL = finalURL
	}
	outcome.Failure = classify(statusCode, err)
	if outcome.Failure != "" && outcome.Err == nil {
		outcome.Err = fmt.Errorf("fetch %s: http status %d", req.URL, statusCode)
	}

	f.report(domain, outcome)
	metrics.ObservePage(string(method), outcomeLabel(outcome), elapsed)
	return outcome
}

// FetchWithRetry retries transient failures once. The retry runs under
// the already backed-off timeout because the first attempt's failure is
// reported before the retry asks for a budget. Definitive HTTP failures
// are never retried.
func (f *Fetcher) FetchWithRetry(ctx context.Context, req crawler.FetchRequest, method crawler.Method) crawler.FetchOutcome {
	outcome := f.Fetch(ctx, req, method)
	if outcome.OK() || outcome.FastFail() {
		return outcome
	}
	switch outcome.Failure {
	case crawler.FailTimeout, crawler.FailTransport:
	default:
		return outcome
	}
	if ctx.Err() != nil {
		return outcome
	}
	f.logger.Debug("retrying fetch",
		zap.String("url", req.URL),
		zap.String("failure", string(outcome.Failure)),
	)
	return f.Fetch(ctx, req, method)
}

func (f *Fetcher) render(ctx context.Context, rawURL string, timeout time.Duration) (int, string, []byte, error) {
	session, err := f.pool.Acquire(ctx)
	if err != nil {
		return 0, "", nil, err
	}
	defer f.pool.Release(session)

	res, err := session.Render(ctx, rawURL, timeout)
	if err != nil {
		return 0, "", nil, err
	}
	return res.StatusCode, res.FinalURL, res.Body, nil
}

// report feeds both adaptive controllers. Called once per attempt.
func (f *Fetcher) report(domain string, outcome crawler.FetchOutcome) {
	switch {
	case outcome.OK():
		f.spacing.ReportOutcome(domain, politeness.OutcomeSuccess)
		f.timeouts.ReportSuccess(domain, outcome.Elapsed)
	case outcome.StatusCode == 429 || outcome.StatusCode == 503:
		f.spacing.ReportOutcome(domain, politeness.OutcomeThrottled)
	case outcome.Failure == crawler.FailTimeout:
		f.spacing.ReportOutcome(domain, politeness.OutcomeError)
		f.timeouts.ReportTimeout(domain)
	default:
		f.spacing.ReportOutcome(domain, politeness.OutcomeError)
	}
}

// classify prefers the HTTP status when one arrived: the lightweight
// client surfaces error statuses with a non-nil error attached.
func classify(statusCode int, err error) crawler.FailureKind {
	switch {
	case statusCode == 403 || statusCode == 451:
		return crawler.FailBlocked
	case statusCode == 404 || statusCode == 410:
		return crawler.FailNotFound
	case statusCode >= 400:
		return crawler.FailTransport
	}
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return crawler.FailTimeout
		case errors.Is(err, renderpool.ErrPoolClosed):
			return crawler.FailPoolClosed
		default:
			return crawler.FailTransport
		}
	}
	return ""
}

func outcomeLabel(o crawler.FetchOutcome) string {
	if o.OK() {
		return "ok"
	}
	return string(o.Failure)
}
