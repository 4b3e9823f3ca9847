package extract

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	// Obfuscation spellings seen on institutional pages:
	// "jane [at] example [dot] edu", "jane (at) example (dot) edu",
	// "jane AT example DOT edu". Bracketed forms are unambiguous; bare
	// "at"/"dot" words also appear in ordinary prose.
	bracketAtRe  = regexp.MustCompile(`(?i)\s*(?:\[\s*at\s*\]|\(\s*at\s*\))\s*`)
	bracketDotRe = regexp.MustCompile(`(?i)\s*(?:\[\s*dot\s*\]|\(\s*dot\s*\))\s*`)
	wordAtRe     = regexp.MustCompile(`(?i)\s+at\s+`)
	wordDotRe    = regexp.MustCompile(`(?i)\s+dot\s+`)
)

// ExtractEmail finds the first email in text, decoding common
// obfuscation spellings first.
func ExtractEmail(text string) string {
	if m := emailRe.FindString(text); m != "" {
		return m
	}
	decoded := DeobfuscateEmails(text)
	return emailRe.FindString(decoded)
}

// DeobfuscateEmails rewrites "[at]"/"(at)" and the dot variants into
// literal separators so the plain email pattern can match. Bare "at"
// and "dot" words are rewritten only when both are present, so prose
// like "available at noon" never fabricates an address.
func DeobfuscateEmails(text string) string {
	if !strings.Contains(strings.ToLower(text), "at") {
		return text
	}
	decoded := bracketAtRe.ReplaceAllString(text, "@")
	decoded = bracketDotRe.ReplaceAllString(decoded, ".")
	if wordAtRe.MatchString(decoded) && wordDotRe.MatchString(decoded) {
		decoded = wordAtRe.ReplaceAllString(decoded, "@")
		decoded = wordDotRe.ReplaceAllString(decoded, ".")
	}
	return decoded
}

// ExtractPhone finds the first US-format phone number in text.
func ExtractPhone(text string) string {
	return phoneRe.FindString(text)
}

// SplitName separates a display name into first and last, dropping
// middle names and initials.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(cleanText(fullName))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[len(parts)-1]
	}
}

// looksLikeName applies the capitalized-words heuristic used when no
// structured name element exists.
func looksLikeName(line string) bool {
	line = cleanText(line)
	if line == "" || len(line) >= 50 {
		return false
	}
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) == 0 {
			continue
		}
		if r[0] >= 'a' && r[0] <= 'z' {
			return false
		}
	}
	return true
}
