package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Class-name fragments marking an element as one person's block.
var profileClassKeywords = []string{
	"profile", "person", "staff", "faculty", "contact",
	"member", "bio", "card", "directory",
}

var nameClassKeywords = []string{"name", "heading"}

var titleClassKeywords = []string{"title", "position", "role", "job"}

// Plain-text lines containing these words are title candidates.
var titleLineKeywords = []string{
	"director", "dean", "professor", "librarian", "coordinator", "chair", "head",
}

// ParseDocument parses an HTML page body into a goquery document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// CandidateBlocks finds the page regions that each describe one person.
// Semantic profile cards win; table rows are the fallback, then list
// items under people-bearing lists.
func CandidateBlocks(doc *goquery.Document) []*goquery.Selection {
	var blocks []*goquery.Selection

	doc.Find("div, section, article, li").Each(func(_ int, sel *goquery.Selection) {
		classes, _ := sel.Attr("class")
		lower := strings.ToLower(classes)
		for _, kw := range profileClassKeywords {
			if strings.Contains(lower, kw) {
				blocks = append(blocks, sel)
				return
			}
		}
	})
	if len(blocks) > 0 {
		return blocks
	}

	doc.Find("table tr").Each(func(_ int, sel *goquery.Selection) {
		blocks = append(blocks, sel)
	})
	if len(blocks) > 0 {
		return blocks
	}

	doc.Find("ul li, ol li").Each(func(_ int, sel *goquery.Selection) {
		blocks = append(blocks, sel)
	})
	return blocks
}

// ExtractCandidate pulls one raw contact from a block. Returns false
// when the block holds neither a name nor a title.
func ExtractCandidate(block *goquery.Selection, pageURL string, inst crawler.Institution) (crawler.ContactCandidate, bool) {
	text := block.Text()

	var name, title string
	block.Find("h1, h2, h3, h4, h5, strong, b, span, div").Each(func(_ int, sel *goquery.Selection) {
		classes, _ := sel.Attr("class")
		lower := strings.ToLower(classes)
		tagText := cleanText(sel.Text())
		if name == "" && hasAnyKeyword(lower, nameClassKeywords) {
			if len(tagText) > 3 && len(strings.Fields(tagText)) >= 2 {
				name = tagText
			}
		}
		if title == "" && hasAnyKeyword(lower, titleClassKeywords) {
			if len(tagText) > 5 {
				title = tagText
			}
		}
	})

	if name == "" {
		for i, line := range strings.Split(text, "\n") {
			if i >= 5 {
				break
			}
			if looksLikeName(line) {
				name = cleanText(line)
				break
			}
		}
	}

	if title == "" {
		for _, line := range strings.Split(text, "\n") {
			clean := cleanText(line)
			lower := strings.ToLower(clean)
			if len(clean) > 5 && len(clean) < 100 && hasAnyKeyword(lower, titleLineKeywords) {
				title = clean
				break
			}
		}
	}

	email := ""
	if mailto := block.Find(`a[href^="mailto:"]`); mailto.Length() > 0 {
		href, _ := mailto.First().Attr("href")
		email = cleanText(strings.TrimPrefix(href, "mailto:"))
		if idx := strings.Index(email, "?"); idx >= 0 {
			email = email[:idx]
		}
	}
	if email == "" {
		email = ExtractEmail(text)
	}

	phone := ExtractPhone(text)

	if name == "" && title == "" {
		return crawler.ContactCandidate{}, false
	}

	first, last := SplitName(name)
	provenance := crawler.EmailNone
	if email != "" {
		provenance = crawler.EmailObserved
	}
	return crawler.ContactCandidate{
		FullName:      name,
		FirstName:     first,
		LastName:      last,
		Title:         title,
		Email:         strings.ToLower(email),
		Phone:         phone,
		SourceURL:     pageURL,
		InstitutionID: inst.ID,
		Provenance:    provenance,
	}, true
}

func hasAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
