package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// New selects a sink implementation from configuration.
func New(ctx context.Context, provider, outputFile, resumeFile, dsn string, logger *zap.Logger) (crawler.Sink, error) {
	switch provider {
	case "", "csv":
		return NewCSVSink(outputFile, resumeFile, logger)
	case "postgres":
		return NewPostgresSink(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unknown sink provider %q", provider)
	}
}
