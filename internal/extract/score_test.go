package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

func TestConfidenceObservedEmailExactTitlePhone(t *testing.T) {
	score := Confidence(Factors{
		EmailPresent:  true,
		EmailObserved: true,
		TitleStrength: 95,
		PhonePresent:  true,
	})
	require.Equal(t, 70, score)
	require.Equal(t, crawler.BucketMedium, crawler.ScoredContact{Confidence: score}.ConfidenceBucket())
}

func TestConfidenceDeliverableVerdictLiftsToHigh(t *testing.T) {
	score := Confidence(Factors{
		EmailPresent:  true,
		EmailObserved: true,
		Verdict:       crawler.VerdictDeliverable,
		TitleStrength: 95,
		PhonePresent:  true,
	})
	require.Equal(t, 100, score)
	require.Equal(t, crawler.BucketHigh, crawler.ScoredContact{Confidence: score}.ConfidenceBucket())
}

func TestConfidenceConstructedEmailGoesNegative(t *testing.T) {
	score := Confidence(Factors{
		EmailPresent:  true,
		EmailObserved: false,
		TitleStrength: 75,
	})
	require.Equal(t, -20, score)
	require.Equal(t, crawler.BucketNeedsReview, crawler.ScoredContact{Confidence: score}.ConfidenceBucket())
}

func TestConfidenceCatchAllPenalty(t *testing.T) {
	score := Confidence(Factors{
		EmailPresent:  true,
		EmailObserved: true,
		Verdict:       crawler.VerdictCatchAll,
		TitleStrength: 95,
	})
	require.Equal(t, 40, score)
}

func TestConfidenceTitleModifierApplied(t *testing.T) {
	base := Factors{EmailPresent: true, EmailObserved: true, TitleStrength: 95}
	withModifier := base
	withModifier.TitleModifier = -3
	require.Equal(t, Confidence(base)-3, Confidence(withModifier))
}

func TestConfidenceNoEmailNoEmailFactors(t *testing.T) {
	score := Confidence(Factors{
		Verdict:       crawler.VerdictDeliverable,
		TitleStrength: 95,
	})
	require.Equal(t, 20, score, "verdict must not contribute without an email")
}
