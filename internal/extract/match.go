package extract

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const (
	matchThreshold = 70
	exactThreshold = 90
	maxWordBoost   = 15
)

// Words too generic to anchor a narrow role on their own. A role whose
// tokens are all generic is broad and needs no context keyword.
var genericRoleWords = map[string]struct{}{
	"director": {}, "dean": {}, "coordinator": {}, "chair": {},
	"head": {}, "associate": {}, "assistant": {}, "interim": {},
	"acting": {}, "co-director": {}, "co-chair": {}, "co-coordinator": {},
	"of": {}, "the": {}, "for": {}, "and": {},
	"program": {}, "programs": {}, "department": {}, "faculty": {},
	"instructor": {}, "lecturer": {}, "professor": {}, "services": {},
	"studies": {}, "education": {}, "development": {},
}

// Titles carrying one of these against a role that carries none are
// academic-track, not administrative, and never match.
var professorClassWords = map[string]struct{}{
	"professor": {}, "prof": {},
}

// Match is the outcome of comparing one title against the taxonomy.
type Match struct {
	Role     string
	Strength int
}

// MatchRole compares a normalized title against the target roles using
// the maximum of three similarity strategies plus a shared-word boost.
//
// Similarity alone is not enough for a narrow role: the title must also
// carry one of the role's distinguishing context keywords. Broad roles
// (all-generic tokens) skip the gate.
func MatchRole(title NormalizedTitle, roles []string) Match {
	titleClean := strings.ToLower(title.Normalized)
	if titleClean == "" || title.Excluded {
		return Match{}
	}
	titleWords := wordSet(titleClean)

	best := Match{}
	for _, role := range roles {
		roleClean := strings.ToLower(role)
		roleWords := wordSet(roleClean)

		if rejectedByAcademicSignal(titleWords, roleWords) {
			continue
		}
		if !passesContextGate(titleWords, roleWords) {
			continue
		}

		score := maxInt(
			fuzzy.TokenSortRatio(titleClean, roleClean),
			fuzzy.PartialRatio(titleClean, roleClean),
			fuzzy.Ratio(titleClean, roleClean),
		)

		common := 0
		for w := range roleWords {
			if _, ok := titleWords[w]; ok {
				common++
			}
		}
		if common > 0 {
			boost := common * 5
			if boost > maxWordBoost {
				boost = maxWordBoost
			}
			score += boost
			if score > 100 {
				score = 100
			}
		}

		if score > best.Strength {
			best = Match{Role: role, Strength: score}
		}
	}

	if best.Strength < matchThreshold {
		return Match{Strength: best.Strength}
	}
	return best
}

// contextKeywords are the role tokens that actually distinguish it.
func contextKeywords(roleWords map[string]struct{}) map[string]struct{} {
	ctx := make(map[string]struct{})
	for w := range roleWords {
		if _, generic := genericRoleWords[w]; !generic {
			ctx[w] = struct{}{}
		}
	}
	return ctx
}

func passesContextGate(titleWords, roleWords map[string]struct{}) bool {
	ctx := contextKeywords(roleWords)
	if len(ctx) == 0 {
		return true
	}
	for w := range ctx {
		if _, ok := titleWords[w]; ok {
			return true
		}
	}
	return false
}

func rejectedByAcademicSignal(titleWords, roleWords map[string]struct{}) bool {
	titleHas := false
	for w := range professorClassWords {
		if _, ok := titleWords[w]; ok {
			titleHas = true
			break
		}
	}
	if !titleHas {
		return false
	}
	for w := range professorClassWords {
		if _, ok := roleWords[w]; ok {
			return false
		}
	}
	return true
}

func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '/'
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func maxInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
