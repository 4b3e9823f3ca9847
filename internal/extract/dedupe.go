package extract

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Titles this similar are the same position written two ways.
const duplicateTitleThreshold = 90

// Dedupe collapses duplicate records within one institution's result
// set. Records sharing a lowercase email are duplicates; absent email,
// records sharing a normalized name and a near-identical title are.
// The higher-confidence record survives.
func Dedupe(contacts []crawler.ScoredContact) []crawler.ScoredContact {
	byEmail := make(map[string]int)
	var out []crawler.ScoredContact

	for _, c := range contacts {
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email != "" {
			if idx, dup := byEmail[email]; dup {
				if c.Confidence > out[idx].Confidence {
					out[idx] = c
				}
				continue
			}
			byEmail[email] = len(out)
			out = append(out, c)
			continue
		}

		if idx, dup := findNameDuplicate(out, c); dup {
			if c.Confidence > out[idx].Confidence {
				out[idx] = c
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

func findNameDuplicate(existing []crawler.ScoredContact, c crawler.ScoredContact) (int, bool) {
	name := normalizeName(c.FullName)
	if name == "" {
		return 0, false
	}
	for i, prev := range existing {
		if prev.Email != "" {
			continue
		}
		if normalizeName(prev.FullName) != name {
			continue
		}
		if fuzzy.TokenSortRatio(strings.ToLower(prev.Title), strings.ToLower(c.Title)) >= duplicateTitleThreshold {
			return i, true
		}
	}
	return 0, false
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
