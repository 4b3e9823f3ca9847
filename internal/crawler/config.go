package crawler

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences a crawl run.
// All values originate from Viper so the crawler can be configured via
// files, env vars, or CLI flags.
type Config struct {
	Concurrency    int
	RenderPoolSize int
	UserAgent      string
	FetchMethod    Preference

	DefaultDelay time.Duration
	MinDelay     time.Duration
	MaxDelay     time.Duration

	DefaultTimeout time.Duration
	MinTimeout     time.Duration
	MaxTimeout     time.Duration

	MaxDepth        int
	MaxPerLevel     int
	MaxPages        int
	MaxPageBytes    int64
	ReadySelectors  []string
	RenderDomainQPS float64

	RenderPatterns      []string
	LightweightPatterns []string
	RouterStatsFile     string

	SinkProvider string
	OutputFile   string
	ResumeFile   string
	DatabaseDSN  string

	SnapshotProvider string
	SnapshotDir      string
	SnapshotBucket   string

	NotifyProvider string
	NotifyProject  string
	NotifyTopic    string

	VerifyEndpoint string
	VerifyAPIKey   string

	TargetsFile string
	ListenAddr  string
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Concurrency:         v.GetInt("crawler.concurrency"),
		RenderPoolSize:      v.GetInt("crawler.render_pool_size"),
		UserAgent:           v.GetString("crawler.user_agent"),
		FetchMethod:         Preference(v.GetString("crawler.fetch_method")),
		DefaultDelay:        v.GetDuration("politeness.default_delay"),
		MinDelay:            v.GetDuration("politeness.min_delay"),
		MaxDelay:            v.GetDuration("politeness.max_delay"),
		DefaultTimeout:      v.GetDuration("timeout.default"),
		MinTimeout:          v.GetDuration("timeout.min"),
		MaxTimeout:          v.GetDuration("timeout.max"),
		MaxDepth:            v.GetInt("crawler.max_depth"),
		MaxPerLevel:         v.GetInt("crawler.max_per_level"),
		MaxPages:            v.GetInt("crawler.max_pages"),
		MaxPageBytes:        v.GetInt64("crawler.max_page_bytes"),
		ReadySelectors:      v.GetStringSlice("crawler.ready_selectors"),
		RenderDomainQPS:     v.GetFloat64("crawler.render_domain_qps"),
		RenderPatterns:      v.GetStringSlice("router.render_patterns"),
		LightweightPatterns: v.GetStringSlice("router.lightweight_patterns"),
		RouterStatsFile:     v.GetString("router.stats_file"),
		SinkProvider:        v.GetString("sink.provider"),
		OutputFile:          v.GetString("sink.output_file"),
		ResumeFile:          v.GetString("sink.resume_file"),
		DatabaseDSN:         v.GetString("sink.dsn"),
		SnapshotProvider:    v.GetString("snapshot.provider"),
		SnapshotDir:         v.GetString("snapshot.dir"),
		SnapshotBucket:      v.GetString("snapshot.bucket"),
		NotifyProvider:      v.GetString("notify.provider"),
		NotifyProject:       v.GetString("notify.project"),
		NotifyTopic:         v.GetString("notify.topic"),
		VerifyEndpoint:      v.GetString("verify.endpoint"),
		VerifyAPIKey:        v.GetString("verify.api_key"),
		TargetsFile:         v.GetString("targets.file"),
		ListenAddr:          v.GetString("api.listen_addr"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.RenderPoolSize <= 0 {
		return fmt.Errorf("crawler.render_pool_size must be > 0")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	switch c.FetchMethod {
	case PreferAuto, PreferRender, PreferLightweight:
	default:
		return fmt.Errorf("crawler.fetch_method must be auto, render, or lightweight")
	}
	if c.MinDelay <= 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("politeness delays must satisfy 0 < min <= max")
	}
	if c.DefaultDelay < c.MinDelay || c.DefaultDelay > c.MaxDelay {
		return fmt.Errorf("politeness.default_delay must lie within [min, max]")
	}
	if c.MinTimeout <= 0 || c.MaxTimeout < c.MinTimeout {
		return fmt.Errorf("timeouts must satisfy 0 < min <= max")
	}
	if c.DefaultTimeout < c.MinTimeout || c.DefaultTimeout > c.MaxTimeout {
		return fmt.Errorf("timeout.default must lie within [min, max]")
	}
	if c.MaxDepth <= 0 || c.MaxPerLevel <= 0 || c.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_depth, max_per_level and max_pages must be > 0")
	}
	if c.MaxPageBytes <= 0 {
		return fmt.Errorf("crawler.max_page_bytes must be > 0")
	}
	if c.OutputFile == "" && c.SinkProvider == "csv" {
		return fmt.Errorf("sink.output_file must be set for the csv sink")
	}
	if c.SinkProvider == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("sink.dsn must be set for the postgres sink")
	}
	return nil
}
