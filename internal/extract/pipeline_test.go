package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

func zapNop() *zap.Logger {
	return zap.NewNop()
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

type fixedConstructor struct {
	email string
}

func (f fixedConstructor) Construct(_, _ string) (string, bool) {
	if f.email == "" {
		return "", false
	}
	return f.email, true
}

type fixedVerifier struct {
	verdict crawler.Verdict
}

func (f fixedVerifier) Verify(context.Context, string) (crawler.Verdict, error) {
	return f.verdict, nil
}

func extractedFixture(name, title, email string, strength int) Extracted {
	first, last := SplitName(name)
	provenance := crawler.EmailNone
	if email != "" {
		provenance = crawler.EmailObserved
	}
	return Extracted{
		Candidate: crawler.ContactCandidate{
			FullName:   name,
			FirstName:  first,
			LastName:   last,
			Title:      title,
			Email:      email,
			Provenance: provenance,
		},
		Title: NormalizeTitle(title),
		Match: Match{Role: title, Strength: strength},
	}
}

func TestFinalizeScoresObservedContact(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	out := Finalize(context.Background(),
		[]Extracted{extractedFixture("Jane Doe", "Library Director", "jane.doe@law.example.edu", 100)},
		nil, nil, fixedClock{at: now}, zapNop())

	require.Len(t, out, 1)
	require.Equal(t, 60, out[0].Confidence, "observed email plus exact title")
	require.Equal(t, now, out[0].ExtractedAt)
	require.Equal(t, crawler.EmailObserved, out[0].Provenance)
}

func TestFinalizeConstructsMissingEmail(t *testing.T) {
	out := Finalize(context.Background(),
		[]Extracted{extractedFixture("Jane Doe", "Library Director", "", 100)},
		fixedConstructor{email: "jane.doe@law.example.edu"}, nil,
		fixedClock{at: time.Now()}, zapNop())

	require.Len(t, out, 1)
	require.Equal(t, "jane.doe@law.example.edu", out[0].Email)
	require.Equal(t, crawler.EmailConstructed, out[0].Provenance)
	require.Equal(t, -10, out[0].Confidence, "constructed email penalized despite exact title")
}

func TestFinalizeVerifierLiftsConfidence(t *testing.T) {
	out := Finalize(context.Background(),
		[]Extracted{extractedFixture("Jane Doe", "Library Director", "jane.doe@law.example.edu", 100)},
		nil, fixedVerifier{verdict: crawler.VerdictDeliverable},
		fixedClock{at: time.Now()}, zapNop())

	require.Len(t, out, 1)
	require.Equal(t, 90, out[0].Confidence)
	require.Equal(t, crawler.BucketHigh, out[0].ConfidenceBucket())
}

func TestFinalizeNoConstructorLeavesEmailEmpty(t *testing.T) {
	out := Finalize(context.Background(),
		[]Extracted{extractedFixture("Jane Doe", "Library Director", "", 100)},
		nil, nil, fixedClock{at: time.Now()}, zapNop())

	require.Len(t, out, 1)
	require.Empty(t, out[0].Email)
	require.Equal(t, crawler.EmailNone, out[0].Provenance)
}

func TestFinalizeDedupes(t *testing.T) {
	out := Finalize(context.Background(),
		[]Extracted{
			extractedFixture("Jane Doe", "Library Director", "jane.doe@law.example.edu", 100),
			extractedFixture("Jane Doe", "Law Library Director", "jane.doe@law.example.edu", 100),
		},
		nil, nil, fixedClock{at: time.Now()}, zapNop())

	require.Len(t, out, 1)
}
