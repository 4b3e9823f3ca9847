package extract

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Extracted is a candidate with its matching metadata, before the
// institution-wide enrichment and scoring pass.
type Extracted struct {
	Candidate crawler.ContactCandidate
	Title     NormalizedTitle
	Match     Match
}

// EmailConstructor builds an address for a person from an inferred
// domain pattern. ok is false when no reliable pattern is known.
type EmailConstructor interface {
	Construct(firstName, lastName string) (email string, ok bool)
}

// ExtractPage pulls every plausible contact from one parsed document.
// Excluded titles (emeritus, student, visiting, assistant-to) are
// dropped; unmatched titles are kept without a role label.
func ExtractPage(doc *goquery.Document, pageURL string, inst crawler.Institution, roles []string, logger *zap.Logger) []Extracted {
	blocks := CandidateBlocks(doc)
	var out []Extracted

	for _, block := range blocks {
		candidate, ok := ExtractCandidate(block, pageURL, inst)
		if !ok {
			continue
		}
		title := NormalizeTitle(candidate.Title)
		if candidate.Title != "" && title.Excluded {
			logger.Debug("excluded title",
				zap.String("title", candidate.Title),
				zap.String("institution", inst.ID),
			)
			continue
		}
		out = append(out, Extracted{
			Candidate: candidate,
			Title:     title,
			Match:     MatchRole(title, roles),
		})
	}

	logger.Debug("extracted page",
		zap.String("url", pageURL),
		zap.Int("blocks", len(blocks)),
		zap.Int("candidates", len(out)),
	)
	return out
}

// Finalize runs the institution-wide pass: construct missing emails
// from the inferred pattern, verify, score, dedupe. The verifier and
// constructor may be nil; absence degrades scores, not correctness.
func Finalize(ctx context.Context, extracted []Extracted, constructor EmailConstructor, verifier crawler.EmailVerifier, clock crawler.Clock, logger *zap.Logger) []crawler.ScoredContact {
	scored := make([]crawler.ScoredContact, 0, len(extracted))

	for _, e := range extracted {
		candidate := e.Candidate

		if candidate.Email == "" && constructor != nil && candidate.FirstName != "" && candidate.LastName != "" {
			if email, ok := constructor.Construct(candidate.FirstName, candidate.LastName); ok {
				candidate.Email = email
				candidate.Provenance = crawler.EmailConstructed
			}
		}

		verdict := crawler.VerdictUnknown
		if candidate.Email != "" && verifier != nil {
			v, err := verifier.Verify(ctx, candidate.Email)
			if err != nil {
				logger.Debug("email verification failed",
					zap.String("email", candidate.Email),
					zap.Error(err),
				)
			} else {
				verdict = v
			}
		}

		confidence := Confidence(Factors{
			EmailPresent:  candidate.Email != "",
			EmailObserved: candidate.Provenance == crawler.EmailObserved,
			Verdict:       verdict,
			TitleStrength: e.Match.Strength,
			PhonePresent:  candidate.Phone != "",
			TitleModifier: e.Title.ConfidenceModifier(),
		})

		scored = append(scored, crawler.ScoredContact{
			ContactCandidate: candidate,
			MatchedRole:      e.Match.Role,
			TitleStrength:    e.Match.Strength,
			Confidence:       confidence,
			ExtractedAt:      clock.Now(),
		})
	}

	return Dedupe(scored)
}
