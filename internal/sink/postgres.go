package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// pgxPool is the narrow pool surface the sink needs. pgxpool.Pool and
// the pgxmock pool both satisfy it.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresSink stores contacts and completion marks in Postgres. One
// transaction covers an institution's rows and its completion mark, so
// a crash never releases contacts without recording the institution.
type PostgresSink struct {
	pool   pgxPool
	logger *zap.Logger
}

// NewPostgresSink connects to Postgres and verifies the connection.
//
// Expected schema:
//
//	CREATE TABLE contacts (
//		institution_id TEXT NOT NULL,
//		full_name TEXT, first_name TEXT, last_name TEXT,
//		title TEXT, matched_role TEXT, title_strength INT,
//		email TEXT, email_provenance TEXT, phone TEXT,
//		confidence INT, bucket TEXT, source_url TEXT,
//		extracted_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE completed_institutions (
//		institution_id TEXT PRIMARY KEY,
//		contact_count INT NOT NULL,
//		completed_at TIMESTAMPTZ DEFAULT NOW()
//	);
func NewPostgresSink(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sink.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSink{pool: pool, logger: logger}, nil
}

// NewPostgresSinkWithPool constructs a sink from an existing pool
// (primarily for testing).
func NewPostgresSinkWithPool(pool pgxPool, logger *zap.Logger) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresSink{pool: pool, logger: logger}, nil
}

const insertContactSQL = `
INSERT INTO contacts (
	institution_id, full_name, first_name, last_name,
	title, matched_role, title_strength,
	email, email_provenance, phone,
	confidence, bucket, source_url, extracted_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

const markCompleteSQL = `
INSERT INTO completed_institutions (institution_id, contact_count)
VALUES ($1, $2)
ON CONFLICT (institution_id) DO NOTHING`

// Append writes the contacts and the completion mark in one transaction.
func (s *PostgresSink) Append(ctx context.Context, institutionID string, contacts []crawler.ScoredContact) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, c := range contacts {
		if _, err := tx.Exec(ctx, insertContactSQL,
			c.InstitutionID,
			c.FullName,
			c.FirstName,
			c.LastName,
			c.Title,
			c.MatchedRole,
			c.TitleStrength,
			c.Email,
			string(c.Provenance),
			c.Phone,
			c.Confidence,
			string(c.ConfidenceBucket()),
			c.SourceURL,
			c.ExtractedAt,
		); err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, markCompleteSQL, institutionID, len(contacts)); err != nil {
		return fmt.Errorf("mark institution complete: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	s.logger.Debug("flushed institution",
		zap.String("institution", institutionID),
		zap.Int("contacts", len(contacts)),
	)
	return nil
}

// LoadResumeState reads the completed institution ids.
func (s *PostgresSink) LoadResumeState(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT institution_id FROM completed_institutions`)
	if err != nil {
		return nil, fmt.Errorf("query resume state: %w", err)
	}
	defer rows.Close()

	completed := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan resume row: %w", err)
		}
		completed[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read resume rows: %w", err)
	}
	return completed, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}
