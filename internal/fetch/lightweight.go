package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Lightweight fetches pages over plain HTTP with no script execution.
type Lightweight struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// LightweightOptions tune the shared collector and its transport.
type LightweightOptions struct {
	UserAgent    string
	Concurrency  int
	MaxPageBytes int
}

// NewLightweight constructs the Colly-based document fetcher.
func NewLightweight(opts LightweightOptions, logger *zap.Logger) *Lightweight {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(opts.UserAgent),
		colly.MaxBodySize(opts.MaxPageBytes),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       max(2, opts.Concurrency*2),
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ForceAttemptHTTP2:     true,
	})
	return &Lightweight{
		baseCollector: base,
		logger:        logger,
	}
}

type lightResult struct {
	statusCode int
	finalURL   string
	body       []byte
	err        error
}

// Get retrieves one page with the given per-request timeout.
func (l *Lightweight) Get(ctx context.Context, rawURL string, timeout time.Duration) (statusCode int, finalURL string, body []byte, err error) {
	collector := l.baseCollector.Clone()
	collector.SetRequestTimeout(timeout)

	resultCh := make(chan lightResult, 1)
	var once sync.Once
	send := func(res lightResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(lightResult{
			statusCode: r.StatusCode,
			finalURL:   r.Request.URL.String(),
			body:       append([]byte{}, r.Body...),
		})
	})

	collector.OnError(func(r *colly.Response, visitErr error) {
		if visitErr == nil {
			visitErr = errors.New("unknown colly error")
		}
		res := lightResult{err: visitErr}
		if r != nil {
			res.statusCode = r.StatusCode
		}
		send(res)
	})

	if err := collector.Visit(rawURL); err != nil {
		return 0, "", nil, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, "", nil, ctxErr
		}
		return res.statusCode, res.finalURL, res.body, res.err
	default:
		return 0, "", nil, errors.New("colly fetch produced no result")
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
