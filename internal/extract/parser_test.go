package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

const profileCardHTML = `
<html><body>
<div class="faculty-card">
	<h3 class="name">Jane Doe</h3>
	<span class="title">Law Library Director</span>
	<a href="mailto:Jane.Doe@law.example.edu?subject=hi">Email</a>
	<p>(215) 555-0134</p>
</div>
<div class="faculty-card">
	<h3 class="name">John Smith</h3>
	<span class="title">Director of Clinical Programs</span>
</div>
</body></html>`

const tableHTML = `
<html><body>
<table>
<tr>
<td>Jane Doe</td>
<td>Law Library Director</td>
<td>jdoe@law.example.edu</td>
</tr>
<tr>
<td>John Smith</td>
<td>Clinical Programs Director</td>
<td>jsmith@law.example.edu</td>
</tr>
</table>
</body></html>`

const listHTML = `
<html><body>
<ul>
<li>Jane Doe, Law Library Director, jdoe@law.example.edu</li>
</ul>
</body></html>`

func testInst() crawler.Institution {
	return crawler.Institution{
		ID:       "example-law",
		Name:     "Example Law School",
		Category: crawler.CategoryLawSchool,
		BaseURL:  "https://law.example.edu",
	}
}

func TestCandidateBlocksPrefersProfileCards(t *testing.T) {
	doc, err := ParseDocument([]byte(profileCardHTML))
	require.NoError(t, err)
	require.Len(t, CandidateBlocks(doc), 2)
}

func TestCandidateBlocksFallsBackToTableRows(t *testing.T) {
	doc, err := ParseDocument([]byte(tableHTML))
	require.NoError(t, err)
	require.Len(t, CandidateBlocks(doc), 2)
}

func TestCandidateBlocksFallsBackToListItems(t *testing.T) {
	doc, err := ParseDocument([]byte(listHTML))
	require.NoError(t, err)
	require.Len(t, CandidateBlocks(doc), 1)
}

func TestExtractCandidateFromProfileCard(t *testing.T) {
	doc, err := ParseDocument([]byte(profileCardHTML))
	require.NoError(t, err)
	blocks := CandidateBlocks(doc)

	candidate, ok := ExtractCandidate(blocks[0], "https://law.example.edu/faculty", testInst())
	require.True(t, ok)
	require.Equal(t, "Jane Doe", candidate.FullName)
	require.Equal(t, "Jane", candidate.FirstName)
	require.Equal(t, "Doe", candidate.LastName)
	require.Equal(t, "Law Library Director", candidate.Title)
	require.Equal(t, "jane.doe@law.example.edu", candidate.Email, "mailto wins and is lowercased, query stripped")
	require.Equal(t, "(215) 555-0134", candidate.Phone)
	require.Equal(t, crawler.EmailObserved, candidate.Provenance)
	require.Equal(t, "example-law", candidate.InstitutionID)
}

func TestExtractCandidateTextFallback(t *testing.T) {
	doc, err := ParseDocument([]byte(tableHTML))
	require.NoError(t, err)
	blocks := CandidateBlocks(doc)

	candidate, ok := ExtractCandidate(blocks[0], "https://law.example.edu/directory", testInst())
	require.True(t, ok)
	require.Equal(t, "jdoe@law.example.edu", candidate.Email)
	require.Contains(t, candidate.Title, "Director")
}

func TestExtractCandidateEmptyBlock(t *testing.T) {
	doc, err := ParseDocument([]byte(`<html><body><div class="card">  </div></body></html>`))
	require.NoError(t, err)
	blocks := CandidateBlocks(doc)
	require.Len(t, blocks, 1)

	_, ok := ExtractCandidate(blocks[0], "https://law.example.edu", testInst())
	require.False(t, ok)
}

func TestExtractPageDropsExcludedTitles(t *testing.T) {
	html := `
<html><body>
<div class="faculty-card">
	<h3 class="name">Jane Doe</h3>
	<span class="title">Law Library Director</span>
</div>
<div class="faculty-card">
	<h3 class="name">Old Timer</h3>
	<span class="title">Library Director Emeritus</span>
</div>
</body></html>`
	doc, err := ParseDocument([]byte(html))
	require.NoError(t, err)

	extracted := ExtractPage(doc, "https://law.example.edu/faculty", testInst(),
		RolesFor(crawler.CategoryLawSchool), zapNop())
	require.Len(t, extracted, 1)
	require.Equal(t, "Jane Doe", extracted[0].Candidate.FullName)
	require.NotEmpty(t, extracted[0].Match.Role)
}
