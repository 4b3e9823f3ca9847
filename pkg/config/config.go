// Package config bootstraps Viper with defaults, config files and
// environment bindings.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Init returns a Viper instance loaded with defaults, an optional
// config file and CRAWLER_-prefixed environment overrides.
// Nested keys map to env vars with underscores, e.g.
// crawler.render_pool_size -> CRAWLER_CRAWLER_RENDER_POOL_SIZE.
func Init(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/contact-crawler")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine; defaults and env cover everything.
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.concurrency", 6)
	v.SetDefault("crawler.render_pool_size", 3)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	v.SetDefault("crawler.fetch_method", "auto")
	v.SetDefault("crawler.max_depth", 3)
	v.SetDefault("crawler.max_per_level", 10)
	v.SetDefault("crawler.max_pages", 40)
	v.SetDefault("crawler.max_page_bytes", 5*1024*1024)
	v.SetDefault("crawler.ready_selectors", []string{"body"})
	v.SetDefault("crawler.render_domain_qps", 1.0)

	v.SetDefault("politeness.default_delay", "2s")
	v.SetDefault("politeness.min_delay", "1s")
	v.SetDefault("politeness.max_delay", "60s")

	v.SetDefault("timeout.default", "30s")
	v.SetDefault("timeout.min", "8s")
	v.SetDefault("timeout.max", "45s")

	v.SetDefault("router.render_patterns", []string{})
	v.SetDefault("router.lightweight_patterns", []string{})
	v.SetDefault("router.stats_file", "data/router_stats.json")

	v.SetDefault("sink.provider", "csv")
	v.SetDefault("sink.output_file", "data/contacts.csv")
	v.SetDefault("sink.resume_file", "data/resume.json")
	v.SetDefault("sink.dsn", "")

	v.SetDefault("snapshot.provider", "none")
	v.SetDefault("snapshot.dir", "data/snapshots")
	v.SetDefault("snapshot.bucket", "")

	v.SetDefault("notify.provider", "none")
	v.SetDefault("notify.project", "")
	v.SetDefault("notify.topic", "")

	v.SetDefault("verify.endpoint", "")
	v.SetDefault("verify.api_key", "")

	v.SetDefault("targets.file", "data/targets.csv")
	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("logging.development", false)
}
