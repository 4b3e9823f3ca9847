package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "targets.csv", `name,url,category,region,id
Example Law School,https://law.example.edu,law-school,PA,example-law
Metro Community College,https://metro.example.edu/paralegal,paralegal-program,OH,
`)

	institutions, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, institutions, 2)

	require.Equal(t, "example-law", institutions[0].ID)
	require.Equal(t, crawler.CategoryLawSchool, institutions[0].Category)
	require.Equal(t, "PA", institutions[0].Region)

	require.Equal(t, "metro-community-college", institutions[1].ID, "missing id derives from name")
	require.Equal(t, "https://metro.example.edu/paralegal", institutions[1].BaseURL)
}

func TestLoadCSVAlternateHeaders(t *testing.T) {
	path := writeFile(t, "targets.csv", `institution_name,base_url,program_type,state
Example Law School,https://law.example.edu,law-school,PA
`)

	institutions, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, institutions, 1)
	require.Equal(t, "Example Law School", institutions[0].Name)
	require.Equal(t, "PA", institutions[0].Region)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "targets.json", `[
		{"id": "example-law", "name": "Example Law School", "category": "law-school", "base_url": "https://law.example.edu"}
	]`)

	institutions, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, institutions, 1)
	require.Equal(t, "example-law", institutions[0].ID)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "targets.yaml", "irrelevant")
	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	path := writeFile(t, "targets.csv", `name,url
Example Law School,
`)
	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeFile(t, "targets.csv", `id,name,url
example-law,Example Law School,https://law.example.edu
example-law,Other Law School,https://other.example.edu
`)
	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
}

func TestSlug(t *testing.T) {
	require.Equal(t, "metro-community-college", Slug("Metro Community College"))
	require.Equal(t, "st-john-s-school-of-law", Slug("St. John's School of Law"))
	require.Equal(t, "abc", Slug("  ABC!  "))
}
