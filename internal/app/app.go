// Package app initializes and holds the long-lived services of a crawl
// run, acting as the composition root.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/api"
	"github.com/lexfind/contact-crawler/internal/clock/system"
	"github.com/lexfind/contact-crawler/internal/crawler"
	"github.com/lexfind/contact-crawler/internal/enrich"
	"github.com/lexfind/contact-crawler/internal/fetch"
	"github.com/lexfind/contact-crawler/internal/metrics"
	"github.com/lexfind/contact-crawler/internal/notify"
	"github.com/lexfind/contact-crawler/internal/orchestrator"
	"github.com/lexfind/contact-crawler/internal/politeness"
	"github.com/lexfind/contact-crawler/internal/renderpool"
	"github.com/lexfind/contact-crawler/internal/router"
	"github.com/lexfind/contact-crawler/internal/sink"
	"github.com/lexfind/contact-crawler/internal/snapshot"
	"github.com/lexfind/contact-crawler/internal/timeoutctl"
)

// App wires every collaborator a crawl run needs and owns their
// lifecycles.
type App struct {
	Config       crawler.Config
	Orchestrator *orchestrator.Orchestrator
	Server       *api.Server

	pool     *renderpool.Pool
	sink     crawler.Sink
	router   *router.Router
	notifier crawler.Notifier
	logger   *zap.Logger
}

// New builds the full service graph. It fails fast when any critical
// collaborator cannot start.
func New(ctx context.Context, cfg crawler.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()
	clk := system.Clock{}

	spacing := politeness.New(cfg.DefaultDelay, cfg.MinDelay, cfg.MaxDelay, clk, logger)
	timeouts := timeoutctl.New(cfg.DefaultTimeout, cfg.MinTimeout, cfg.MaxTimeout, logger)

	rt, err := router.New(cfg.RenderPatterns, cfg.LightweightPatterns, cfg.RouterStatsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("init router: %w", err)
	}

	chrome := renderpool.NewChrome(cfg.UserAgent, cfg.ReadySelectors, cfg.RenderDomainQPS, logger)
	pool, err := renderpool.New(ctx, cfg.RenderPoolSize, chrome.NewSession, logger)
	if err != nil {
		return nil, fmt.Errorf("start render pool: %w", err)
	}

	light := fetch.NewLightweight(fetch.LightweightOptions{
		UserAgent:    cfg.UserAgent,
		Concurrency:  cfg.Concurrency,
		MaxPageBytes: int(cfg.MaxPageBytes),
	}, logger)
	fetcher := fetch.New(light, pool, spacing, timeouts, clk, logger)

	resultSink, err := sink.New(ctx, cfg.SinkProvider, cfg.OutputFile, cfg.ResumeFile, cfg.DatabaseDSN, logger)
	if err != nil {
		pool.Shutdown()
		return nil, fmt.Errorf("init sink: %w", err)
	}

	snapshots, err := snapshot.New(ctx, cfg.SnapshotProvider, cfg.SnapshotDir, cfg.SnapshotBucket, logger)
	if err != nil {
		pool.Shutdown()
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}

	notifier, err := notify.New(ctx, cfg.NotifyProvider, cfg.NotifyProject, cfg.NotifyTopic, clk, logger)
	if err != nil {
		pool.Shutdown()
		return nil, fmt.Errorf("init notifier: %w", err)
	}

	var verifier crawler.EmailVerifier = enrich.NoopVerifier{}
	if cfg.VerifyEndpoint != "" {
		verifier = enrich.NewHTTPVerifier(cfg.VerifyEndpoint, cfg.VerifyAPIKey, logger)
	}

	orch := orchestrator.New(cfg, fetcher, rt, resultSink, snapshots, notifier, verifier, clk, logger)

	return &App{
		Config:       cfg,
		Orchestrator: orch,
		Server:       api.NewServer(orch, logger),
		pool:         pool,
		sink:         resultSink,
		router:       rt,
		notifier:     notifier,
		logger:       logger,
	}, nil
}

// Close tears services down in dependency order.
func (a *App) Close(ctx context.Context) {
	a.pool.Shutdown()
	if err := a.router.Checkpoint(); err != nil {
		a.logger.Warn("router checkpoint on shutdown", zap.Error(err))
	}
	closeNotifier(a.notifier, a.logger)
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warn("close sink", zap.Error(err))
	}
	if err := a.Server.Shutdown(ctx); err != nil {
		a.logger.Warn("shutdown status server", zap.Error(err))
	}
	if err := a.logger.Sync(); err != nil {
		// Best effort; stderr sync failures are expected on some platforms.
		_ = err
	}
}

// closeNotifier flushes providers that batch events in the background.
func closeNotifier(n crawler.Notifier, logger *zap.Logger) {
	c, ok := n.(interface{ Close() error })
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("close notifier", zap.Error(err))
	}
}
