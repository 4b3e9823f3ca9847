package extract

import (
	"regexp"
	"strings"
)

// Abbreviations expanded before matching.
var abbreviationMap = []struct {
	pattern *regexp.Regexp
	full    string
}{
	{regexp.MustCompile(`(?i)\bdir\b\.?`), "Director"},
	{regexp.MustCompile(`(?i)\bassoc\b\.?`), "Associate"},
	{regexp.MustCompile(`(?i)\basst\b\.?`), "Assistant"},
	{regexp.MustCompile(`(?i)\bdept\b\.?`), "Department"},
	{regexp.MustCompile(`(?i)\bcoord\b\.?`), "Coordinator"},
	{regexp.MustCompile(`(?i)\bprog\b\.?`), "Program"},
	{regexp.MustCompile(`(?i)\bmgr\b\.?`), "Manager"},
	{regexp.MustCompile(`(?i)\badmin\b\.?`), "Administrator"},
	{regexp.MustCompile(`(?i)\blibn\b\.?`), "Librarian"},
	{regexp.MustCompile(`(?i)\bprof\b\.?`), "Professor"},
	{regexp.MustCompile(`(?i)\badj\b\.?`), "Adjunct"},
	{regexp.MustCompile(`(?i)\bsr\b\.?`), "Senior"},
	{regexp.MustCompile(`(?i)\binfo\b\.?`), "Information"},
	{regexp.MustCompile(`(?i)\btech\b\.?`), "Technology"},
	{regexp.MustCompile(`(?i)\bacad\b\.?`), "Academic"},
	{regexp.MustCompile(`(?i)\bsvcs\b\.?`), "Services"},
}

var temporaryModifiers = []string{
	"interim", "acting", "temporary", "temp", "provisional",
	"ad interim", "pro tem", "pro tempore",
}

var seniorityModifiers = []string{
	"senior", "chief", "lead", "principal",
}

var sharedRolePrefixes = []string{
	"co-director", "co-chair", "co-coordinator",
	"co director", "co chair", "co coordinator",
	"joint",
}

var emeritusMarkers = []string{"emeritus", "emerita", "retired", "former", "ex-"}

var visitingMarkers = []string{"visiting", "adjunct", "affiliate", "courtesy", "lecturer"}

var studentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bstudent\s+(?:director|coordinator|assistant)`),
	regexp.MustCompile(`(?i)graduate\s+assistant`),
	regexp.MustCompile(`(?i)student\s+worker`),
	regexp.MustCompile(`(?i)work[\s-]?study`),
}

var supportStaffPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)assistant\s+to\s+the`),
	regexp.MustCompile(`(?i)aide\s+to`),
	regexp.MustCompile(`(?i)executive\s+assistant\s+to`),
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	dashSuffixRe    = regexp.MustCompile(`\s+[-–—]\s*.*$`)
	credentialRe    = regexp.MustCompile(`(?i),\s+(J\.D\.|LL\.M\.|Ph\.D\.|Esq\.|Law School|School of Law)`)
	multiSpaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizedTitle is the result of title preprocessing: the cleaned
// title used for matching plus flags feeding exclusion and scoring.
type NormalizedTitle struct {
	Original    string
	Normalized  string
	Modifiers   []string
	Temporary   bool
	SharedRole  bool
	Abbreviated bool
	Excluded    bool
}

// ConfidenceModifier is the small signed adjustment the title's shape
// contributes to the confidence score. Clean titles contribute zero.
func (t NormalizedTitle) ConfidenceModifier() int {
	modifier := 0
	if t.Temporary {
		modifier -= 3
	}
	if t.Abbreviated {
		modifier -= 2
	}
	if t.SharedRole {
		modifier += 2
	}
	return modifier
}

// NormalizeTitle expands abbreviations, strips qualifiers and
// modifiers, and flags titles that must never match (emeritus, student,
// visiting, assistant-to).
func NormalizeTitle(raw string) NormalizedTitle {
	original := cleanText(raw)
	if original == "" {
		return NormalizedTitle{Original: raw, Excluded: true}
	}

	expanded := original
	abbreviated := false
	for _, abbr := range abbreviationMap {
		if abbr.pattern.MatchString(expanded) {
			abbreviated = true
			expanded = abbr.pattern.ReplaceAllString(expanded, abbr.full)
		}
	}

	cleaned := parentheticalRe.ReplaceAllString(expanded, "")
	cleaned = dashSuffixRe.ReplaceAllString(cleaned, "")
	cleaned = credentialRe.ReplaceAllString(cleaned, "")
	cleaned = cleanText(cleaned)

	normalized, modifiers := stripModifiers(cleaned)

	lower := strings.ToLower(original)
	excluded := containsAny(lower, emeritusMarkers) ||
		containsAny(lower, visitingMarkers) ||
		matchesAny(lower, studentPatterns) ||
		matchesAny(lower, supportStaffPatterns)

	temporary := false
	for _, mod := range modifiers {
		if containsAny(strings.ToLower(mod), temporaryModifiers) {
			temporary = true
		}
	}

	return NormalizedTitle{
		Original:    original,
		Normalized:  normalized,
		Modifiers:   modifiers,
		Temporary:   temporary,
		SharedRole:  containsAny(strings.ToLower(normalized), sharedRolePrefixes),
		Abbreviated: abbreviated,
		Excluded:    excluded,
	}
}

// stripModifiers removes temporary and seniority words. Shared-role
// prefixes stay because they are the role itself.
func stripModifiers(title string) (string, []string) {
	var modifiers []string
	out := title
	for _, mod := range append(append([]string{}, temporaryModifiers...), seniorityModifiers...) {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(mod) + `\b`)
		if loc := re.FindString(out); loc != "" {
			modifiers = append(modifiers, loc)
			out = re.ReplaceAllString(out, "")
		}
	}
	return cleanText(out), modifiers
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u200b", "")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
