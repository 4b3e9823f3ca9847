// Package enrich supplements extracted contacts: it infers the
// institution's email address pattern from observed samples and talks
// to the external validation collaborator.
package enrich

import (
	"strings"
)

// A pattern needs at least this many samples, and the winning separator
// must cover at least this share of them.
const (
	minPatternSamples  = 3
	patternConsistency = 0.6
)

// Separator styles between first and last name in a local part.
type separator string

const (
	sepDot  separator = "."
	sepUnd  separator = "_"
	sepNone separator = "none"
)

// PatternBook holds the inferred email pattern for one domain. Build it
// from every email observed on the institution's pages, then use it to
// construct addresses for contacts that had none.
type PatternBook struct {
	domain string
	sep    separator
	known  bool
}

// NewPatternBook infers the dominant separator from observed emails.
// Emails outside the domain are ignored.
func NewPatternBook(domain string, observed []string) *PatternBook {
	book := &PatternBook{domain: strings.ToLower(domain)}

	counts := make(map[separator]int)
	total := 0
	for _, email := range observed {
		email = strings.ToLower(strings.TrimSpace(email))
		at := strings.LastIndex(email, "@")
		if at <= 0 {
			continue
		}
		if book.domain != "" && email[at+1:] != book.domain {
			continue
		}
		local := email[:at]
		switch {
		case strings.Contains(local, "."):
			counts[sepDot]++
		case strings.Contains(local, "_"):
			counts[sepUnd]++
		default:
			counts[sepNone]++
		}
		total++
	}

	if total < minPatternSamples {
		return book
	}
	var best separator
	bestCount := 0
	for sep, n := range counts {
		if n > bestCount {
			best = sep
			bestCount = n
		}
	}
	if float64(bestCount)/float64(total) >= patternConsistency {
		book.sep = best
		book.known = true
	}
	return book
}

// Known reports whether a reliable pattern was inferred.
func (b *PatternBook) Known() bool {
	return b.known
}

// Construct builds first<sep>last@domain from the inferred pattern.
func (b *PatternBook) Construct(firstName, lastName string) (string, bool) {
	if !b.known || b.domain == "" {
		return "", false
	}
	first := strings.ToLower(strings.TrimSpace(firstName))
	last := strings.ToLower(strings.TrimSpace(lastName))
	if first == "" || last == "" {
		return "", false
	}
	var local string
	switch b.sep {
	case sepUnd:
		local = first + "_" + last
	case sepNone:
		local = first + last
	default:
		local = first + "." + last
	}
	return local + "@" + b.domain, true
}
