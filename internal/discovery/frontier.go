// Package discovery finds the directory and profile pages of an
// institution site starting from its home page.
package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Paths worth probing even when the home page never links to them.
var conventionalPaths = []string{
	"/faculty",
	"/staff",
	"/directory",
	"/people",
	"/faculty-staff",
	"/administration",
	"/about/faculty",
	"/about/staff",
	"/contact",
	"/leadership",
	"/our-people",
}

// Link text or path fragments that mark a page as people-bearing.
var directoryKeywords = []string{
	"directory",
	"faculty",
	"staff",
	"people",
	"administration",
	"leadership",
	"our team",
	"contact us",
	"dean",
	"librar",
}

// Fragments that mark an individual profile page.
var profileMarkers = []string{
	"/profile",
	"/bio/",
	"/person/",
	"/people/",
	"/faculty/",
	"/staff/",
	"/directory/",
}

// Query parameters that never change page identity.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
}

// Candidate is one URL the frontier wants fetched.
type Candidate struct {
	URL   string
	Role  crawler.PageRole
	Depth int
}

// Frontier tracks pending and visited URLs for one institution. Depth
// and breadth limits keep a sprawling site from eating the page budget.
type Frontier struct {
	base     *url.URL
	seen     map[string]struct{}
	queue    []Candidate
	planned  int
	maxDepth int
	maxWide  int
	maxPages int
	logger   *zap.Logger
}

// New builds a frontier rooted at the institution's base URL.
func New(inst crawler.Institution, maxDepth, maxPerLevel, maxPages int, logger *zap.Logger) (*Frontier, error) {
	base, err := url.Parse(inst.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", inst.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q missing scheme or host", inst.BaseURL)
	}
	return &Frontier{
		base:     base,
		seen:     make(map[string]struct{}),
		maxDepth: maxDepth,
		maxWide:  maxPerLevel,
		maxPages: maxPages,
		logger:   logger,
	}, nil
}

// SeedFromHome queues directory links found on the home page, then the
// conventional paths the home page did not link to. A nil doc (home
// page unavailable) seeds the conventional paths alone.
func (f *Frontier) SeedFromHome(doc *goquery.Document) {
	if doc == nil {
		for _, path := range conventionalPaths {
			f.add(path, 1)
		}
		return
	}
	added := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if !looksLikeDirectory(href, text) {
			return true
		}
		if f.add(href, 1) {
			added++
		}
		return added < f.maxWide
	})

	for _, path := range conventionalPaths {
		f.add(path, 1)
	}
	f.logger.Debug("frontier seeded",
		zap.String("base", f.base.String()),
		zap.Int("queued", len(f.queue)),
	)
}

// Expand queues people-bearing links from a fetched page. Pages at the
// depth limit expand to nothing.
func (f *Frontier) Expand(doc *goquery.Document, fromDepth int) {
	if fromDepth >= f.maxDepth {
		return
	}
	added := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if !looksLikeDirectory(href, text) && !looksLikeProfile(href) {
			return true
		}
		if f.add(href, fromDepth+1) {
			added++
		}
		return added < f.maxWide
	})
}

// Next pops the next pending candidate in discovery order.
func (f *Frontier) Next() (Candidate, bool) {
	if len(f.queue) == 0 {
		return Candidate{}, false
	}
	c := f.queue[0]
	f.queue = f.queue[1:]
	return c, true
}

// Planned reports how many URLs have been queued so far, including the
// ones already handed out. The frontier itself stops queueing once the
// count reaches the page budget.
func (f *Frontier) Planned() int {
	return f.planned
}

// add resolves, filters and dedupes one href. Reports whether a new
// candidate was queued.
func (f *Frontier) add(href string, depth int) bool {
	normalized, ok := f.normalize(href)
	if !ok {
		return false
	}
	if _, dup := f.seen[normalized]; dup {
		return false
	}
	if f.maxPages > 0 && f.planned >= f.maxPages {
		return false
	}
	f.seen[normalized] = struct{}{}
	f.planned++
	f.queue = append(f.queue, Candidate{
		URL:   normalized,
		Role:  classifyRole(normalized),
		Depth: depth,
	})
	return true
}

// normalize resolves href against the base and canonicalizes it so the
// same page never queues twice. Off-site links are rejected.
func (f *Frontier) normalize(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := f.base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !sameSite(f.base.Host, resolved.Host) {
		return "", false
	}

	resolved.Scheme = strings.ToLower(resolved.Scheme)
	resolved.Host = strings.ToLower(resolved.Host)
	// SPA fragment routes are real pages; plain anchors are not.
	if !strings.HasPrefix(resolved.Fragment, "/") {
		resolved.Fragment = ""
	}
	q := resolved.Query()
	for param := range trackingParams {
		q.Del(param)
	}
	resolved.RawQuery = q.Encode()
	resolved.Path = strings.TrimSuffix(resolved.Path, "/")

	return resolved.String(), true
}

func sameSite(baseHost, host string) bool {
	baseHost = strings.TrimPrefix(strings.ToLower(baseHost), "www.")
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host == baseHost || strings.HasSuffix(host, "."+baseHost)
}

func looksLikeDirectory(href, anchorText string) bool {
	lower := strings.ToLower(href)
	for _, kw := range directoryKeywords {
		if strings.Contains(lower, strings.ReplaceAll(kw, " ", "-")) || strings.Contains(anchorText, kw) {
			return true
		}
	}
	return false
}

func looksLikeProfile(href string) bool {
	lower := strings.ToLower(href)
	for _, marker := range profileMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			// A marker followed by a slug is a profile, bare is a listing.
			rest := lower[idx+len(marker):]
			if rest != "" && rest != "/" {
				return true
			}
		}
	}
	return false
}

func classifyRole(normalized string) crawler.PageRole {
	if looksLikeProfile(normalized) {
		return crawler.RoleProfile
	}
	return crawler.RoleDirectory
}
