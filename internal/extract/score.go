package extract

import "github.com/lexfind/contact-crawler/internal/crawler"

// Factors are the signed confidence contributions for one contact.
type Factors struct {
	EmailPresent        bool
	EmailObserved       bool
	Verdict             crawler.Verdict
	TitleStrength       int
	PhonePresent        bool
	EmploymentConfirmed bool
	TitleModifier       int
}

// Confidence computes the contact's reliability score. The sum is not
// clamped; downstream consumers bucket it instead.
//
//	+40 email observed on the institution site
//	-30 email constructed from a pattern
//	+30 email confirmed deliverable
//	-20 email resolves to a catch-all domain
//	+20 exact role match, +10 partial
//	+10 phone present
//	+10 employment independently confirmed
func Confidence(f Factors) int {
	score := 0

	if f.EmailPresent {
		if f.EmailObserved {
			score += 40
		} else {
			score -= 30
		}
		if f.Verdict == crawler.VerdictDeliverable {
			score += 30
		}
		if f.Verdict == crawler.VerdictCatchAll {
			score -= 20
		}
	}

	if f.TitleStrength >= exactThreshold {
		score += 20
	} else if f.TitleStrength >= matchThreshold {
		score += 10
	}

	if f.PhonePresent {
		score += 10
	}
	if f.EmploymentConfirmed {
		score += 10
	}

	return score + f.TitleModifier
}
