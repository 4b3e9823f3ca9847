// Package targets loads the institution list a crawl run works through.
package targets

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Load reads institutions from a CSV or JSON file, keyed on extension.
// Rows without an explicit id get one derived from the name.
func Load(path string, logger *zap.Logger) ([]crawler.Institution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	var institutions []crawler.Institution
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		institutions, err = loadJSON(f)
	case ".csv":
		institutions, err = loadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported targets file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	for i := range institutions {
		if institutions[i].ID == "" {
			institutions[i].ID = Slug(institutions[i].Name)
		}
	}
	if err := validate(institutions); err != nil {
		return nil, err
	}
	logger.Info("loaded targets",
		zap.String("file", path),
		zap.Int("institutions", len(institutions)),
	)
	return institutions, nil
}

func loadJSON(r io.Reader) ([]crawler.Institution, error) {
	var institutions []crawler.Institution
	if err := json.NewDecoder(r).Decode(&institutions); err != nil {
		return nil, fmt.Errorf("parse targets json: %w", err)
	}
	return institutions, nil
}

// loadCSV expects a header row with name, url, category and region
// columns in any order.
func loadCSV(r io.Reader) ([]crawler.Institution, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read targets header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, names ...string) string {
		for _, name := range names {
			if idx, ok := col[name]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
		}
		return ""
	}

	var institutions []crawler.Institution
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read targets row: %w", err)
		}
		institutions = append(institutions, crawler.Institution{
			ID:       field(row, "id"),
			Name:     field(row, "name", "institution_name"),
			Category: crawler.Category(field(row, "category", "type", "program_type")),
			Region:   field(row, "region", "state"),
			BaseURL:  field(row, "base_url", "url"),
		})
	}
	return institutions, nil
}

func validate(institutions []crawler.Institution) error {
	seen := make(map[string]struct{}, len(institutions))
	for _, inst := range institutions {
		if inst.Name == "" || inst.BaseURL == "" {
			return fmt.Errorf("institution %q missing name or base url", inst.ID)
		}
		if _, dup := seen[inst.ID]; dup {
			return fmt.Errorf("duplicate institution id %q", inst.ID)
		}
		seen[inst.ID] = struct{}{}
	}
	return nil
}

// Slug derives a stable lowercase identifier from a display name.
func Slug(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
