package renderpool

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Chrome builds headless Chrome sessions. Per-domain render rate
// limiters are shared across every session it creates.
type Chrome struct {
	userAgent      string
	readySelectors []string
	domainQPS      float64
	domainLimiters sync.Map
	logger         *zap.Logger
}

// NewChrome returns a session provider using the given identity and
// readiness selectors. domainQPS <= 0 disables per-domain rate limiting.
func NewChrome(userAgent string, readySelectors []string, domainQPS float64, logger *zap.Logger) *Chrome {
	return &Chrome{
		userAgent:      userAgent,
		readySelectors: readySelectors,
		domainQPS:      domainQPS,
		logger:         logger,
	}
}

// NewSession starts one headless browser process and verifies it is
// responsive before handing it out.
func (c *Chrome) NewSession(ctx context.Context) (Session, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(c.userAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	warmupCtx, cancelWarmup := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancelWarmup()
	if err := chromedp.Run(warmupCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &chromeSession{
		provider:        c,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
	}, nil
}

type chromeSession struct {
	provider        *Chrome
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
}

// Render navigates a fresh tab to rawURL, waits for the page to become
// ready and returns the post-script DOM snapshot.
func (s *chromeSession) Render(ctx context.Context, rawURL string, timeout time.Duration) (RenderResult, error) {
	if err := s.waitDomainBudget(ctx, rawURL); err != nil {
		return RenderResult{}, fmt.Errorf("render rate limit: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, timeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := newResponseMeta()
	recordResponse(tabCtx, meta)

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(s.provider.userAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady(s.provider.readySelector(), chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return RenderResult{}, fmt.Errorf("chromedp run: %w", err)
	}

	return RenderResult{
		FinalURL:   meta.finalURL(rawURL),
		StatusCode: meta.statusCode,
		Body:       []byte(html),
	}, nil
}

// Healthy checks the browser process still answers trivial script
// evaluation. Used by the pool on every release.
func (s *chromeSession) Healthy() bool {
	if s.browserCtx.Err() != nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(s.browserCtx, 3*time.Second)
	defer cancel()
	var one int
	return chromedp.Run(probeCtx, chromedp.Evaluate("1", &one)) == nil
}

func (s *chromeSession) Close() {
	s.browserCancel()
	s.allocatorCancel()
}

func (c *Chrome) readySelector() string {
	if len(c.readySelectors) > 0 {
		return c.readySelectors[0]
	}
	return "body"
}

func (s *chromeSession) waitDomainBudget(ctx context.Context, rawURL string) error {
	c := s.provider
	if c.domainQPS <= 0 {
		return nil
	}
	host := crawler.DomainOf(rawURL)
	val, _ := c.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(c.domainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait limiter: %w", err)
	}
	return nil
}

type responseMeta struct {
	once       sync.Once
	statusCode int
	headers    http.Header
	url        string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{headers: make(http.Header)}
}

func (m *responseMeta) finalURL(raw string) string {
	if m.url == "" {
		return raw
	}
	return m.url
}

func recordResponse(tabCtx context.Context, meta *responseMeta) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
			meta.url = resp.Response.URL
			for k, v := range resp.Response.Headers {
				meta.headers.Add(k, fmt.Sprint(v))
			}
		})
	})
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
