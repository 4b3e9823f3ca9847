// Package snapshot archives raw fetched documents for later inspection
// and re-extraction.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Noop discards every snapshot.
type Noop struct{}

// Save does nothing.
func (Noop) Save(_ context.Context, _, _ string, _ []byte) error {
	return nil
}

// objectName derives a stable archive key from the institution and the
// page URL.
func objectName(institutionID, pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return fmt.Sprintf("%s/%s.html", institutionID, hex.EncodeToString(sum[:16]))
}

// Local writes snapshots under a directory tree, one file per page.
type Local struct {
	root   string
	logger *zap.Logger
}

// NewLocal builds a filesystem-backed snapshot store rooted at dir.
func NewLocal(dir string, logger *zap.Logger) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot.dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Local{root: dir, logger: logger}, nil
}

// Save writes one page body to disk.
func (l *Local) Save(_ context.Context, institutionID, pageURL string, body []byte) error {
	path := filepath.Join(l.root, objectName(institutionID, pageURL))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create snapshot subdir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o640); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// GCS uploads snapshots to a Google Cloud Storage bucket.
// Authentication uses Application Default Credentials.
type GCS struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCS creates the client and fails fast when the bucket is
// inaccessible.
func NewGCS(ctx context.Context, bucketName string, logger *zap.Logger) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	bkt := client.Bucket(bucketName)
	if _, err := bkt.Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close gcs client after attrs failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucketName, err)
	}
	return &GCS{client: client, bucket: bucketName, logger: logger}, nil
}

// Save uploads one page body. Close on the object writer finalizes the
// upload.
func (g *GCS) Save(ctx context.Context, institutionID, pageURL string, body []byte) error {
	name := objectName(institutionID, pageURL)
	wc := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	if _, err := wc.Write(body); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			g.logger.Warn("close gcs writer after write failure", zap.Error(closeErr))
		}
		return fmt.Errorf("write gcs object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gcs writer for %s: %w", name, err)
	}
	return nil
}

// New selects a snapshot store from configuration.
func New(ctx context.Context, provider, dir, bucket string, logger *zap.Logger) (crawler.SnapshotStore, error) {
	switch provider {
	case "", "none":
		return Noop{}, nil
	case "local":
		return NewLocal(dir, logger)
	case "gcs":
		return NewGCS(ctx, bucket, logger)
	default:
		return nil, fmt.Errorf("unknown snapshot provider %q", provider)
	}
}
