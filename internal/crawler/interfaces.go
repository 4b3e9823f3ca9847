package crawler

import (
	"context"
	"time"
)

// Fetcher turns routed requests into tagged outcomes. Fetch performs
// exactly one network attempt; FetchWithRetry applies the single-retry
// policy for transient failures on top of it.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest, method Method) FetchOutcome
	FetchWithRetry(ctx context.Context, req FetchRequest, method Method) FetchOutcome
}

// Sink persists one completed institution's contacts and marks the
// institution complete as a single durable step.
type Sink interface {
	Append(ctx context.Context, institutionID string, contacts []ScoredContact) error
	LoadResumeState(ctx context.Context) (map[string]struct{}, error)
	Close(ctx context.Context) error
}

// Verdict is an email validation result from the enrichment collaborator.
type Verdict string

// Validation verdicts.
const (
	VerdictDeliverable   Verdict = "deliverable"
	VerdictUndeliverable Verdict = "undeliverable"
	VerdictCatchAll      Verdict = "catch-all"
	VerdictUnknown       Verdict = "unknown"
)

// EmailVerifier is the boundary to the external validation collaborator.
// Absence degrades confidence scores, never correctness.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) (Verdict, error)
}

// SnapshotStore archives raw fetched documents for later inspection.
type SnapshotStore interface {
	Save(ctx context.Context, institutionID, pageURL string, body []byte) error
}

// Notifier publishes institution-completion events for downstream
// reporting collaborators.
type Notifier interface {
	InstitutionCompleted(ctx context.Context, institutionID string, contactCount int, failureReason string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
