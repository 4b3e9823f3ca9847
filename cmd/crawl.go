package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/app"
	"github.com/lexfind/contact-crawler/internal/crawler"
	"github.com/lexfind/contact-crawler/internal/logging"
	"github.com/lexfind/contact-crawler/internal/targets"
	"github.com/lexfind/contact-crawler/pkg/config"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run the crawl over the configured institution list",
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().String("targets", "", "institution list file (overrides targets.file)")
	crawlCmd.Flags().Int("concurrency", 0, "institutions in flight (overrides crawler.concurrency)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	v, err := config.Init(cfgFile)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("targets"); f.Changed {
		v.Set("targets.file", f.Value.String())
	}
	if f := cmd.Flags().Lookup("concurrency"); f.Changed {
		v.Set("crawler.concurrency", f.Value.String())
	}

	logger, err := logging.New(v.GetBool("logging.development"))
	if err != nil {
		return err
	}

	cfg, err := crawler.LoadConfig(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	institutions, err := targets.Load(cfg.TargetsFile, logger)
	if err != nil {
		return err
	}

	// SIGINT/SIGTERM stop new fetches; in-flight tasks wind down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.Close(shutdownCtx)
	}()

	a.Server.Start(cfg.ListenAddr)

	report, err := a.Orchestrator.Run(ctx, institutions)
	if err != nil {
		logger.Warn("run interrupted", zap.Error(err))
	}
	logger.Info("run report",
		zap.String("run_id", report.RunID),
		zap.Time("started_at", report.StartedAt),
		zap.Time("finished_at", report.FinishedAt),
		zap.Int("total", report.Total),
		zap.Int("skipped", report.Skipped),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed),
		zap.Int("abandoned", report.Abandoned),
		zap.Int("contacts", report.ContactsKept),
	)
	return nil
}
