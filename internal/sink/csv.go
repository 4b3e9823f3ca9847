// Package sink persists scored contacts and resume state.
//
// Both providers share the durability contract: an institution's
// contacts and its completion mark land together, and the completion
// mark is durable before Append returns.
package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

var csvHeader = []string{
	"institution_id", "full_name", "first_name", "last_name",
	"title", "matched_role", "title_strength",
	"email", "email_provenance", "phone",
	"confidence", "bucket", "source_url", "extracted_at",
}

// CSVSink appends contacts to a CSV file and tracks completed
// institutions in a JSON resume file next to it.
type CSVSink struct {
	mu        sync.Mutex
	file      *os.File
	writer    *csv.Writer
	completed map[string]struct{}

	resumePath string
	logger     *zap.Logger
}

// NewCSVSink opens (or creates) the output file and loads the resume
// file. The header row is written only when the file is empty.
func NewCSVSink(outputPath, resumePath string, logger *zap.Logger) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	s := &CSVSink{
		file:       file,
		writer:     csv.NewWriter(file),
		completed:  make(map[string]struct{}),
		resumePath: resumePath,
		logger:     logger,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat output file: %w", err)
	}
	if info.Size() == 0 {
		if err := s.writer.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush csv header: %w", err)
		}
	}

	if err := s.loadResume(); err != nil {
		file.Close()
		return nil, err
	}
	return s, nil
}

// Append writes the institution's contacts, syncs them to disk, then
// durably records the institution as complete. Completion marks only
// grow; a re-run never re-processes a completed institution.
func (s *CSVSink) Append(_ context.Context, institutionID string, contacts []crawler.ScoredContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range contacts {
		row := []string{
			c.InstitutionID,
			c.FullName,
			c.FirstName,
			c.LastName,
			c.Title,
			c.MatchedRole,
			strconv.Itoa(c.TitleStrength),
			c.Email,
			string(c.Provenance),
			c.Phone,
			strconv.Itoa(c.Confidence),
			string(c.ConfidenceBucket()),
			c.SourceURL,
			c.ExtractedAt.UTC().Format(time.RFC3339),
		}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("write contact row: %w", err)
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush contacts: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync output file: %w", err)
	}

	s.completed[institutionID] = struct{}{}
	if err := s.writeResume(); err != nil {
		return err
	}
	s.logger.Debug("flushed institution",
		zap.String("institution", institutionID),
		zap.Int("contacts", len(contacts)),
	)
	return nil
}

// LoadResumeState returns the set of completed institution ids.
func (s *CSVSink) LoadResumeState(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.completed))
	for id := range s.completed {
		out[id] = struct{}{}
	}
	return out, nil
}

// Close flushes and closes the output file.
func (s *CSVSink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush on close: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func (s *CSVSink) loadResume() error {
	if s.resumePath == "" {
		return nil
	}
	payload, err := os.ReadFile(s.resumePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read resume file: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		return fmt.Errorf("parse resume file: %w", err)
	}
	for _, id := range ids {
		s.completed[id] = struct{}{}
	}
	s.logger.Info("loaded resume state", zap.Int("completed", len(ids)))
	return nil
}

// writeResume persists the completed set atomically via temp + rename.
func (s *CSVSink) writeResume() error {
	if s.resumePath == "" {
		return nil
	}
	ids := make([]string, 0, len(s.completed))
	for id := range s.completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	payload, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resume state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.resumePath), 0o750); err != nil {
		return fmt.Errorf("create resume dir: %w", err)
	}
	tmp := s.resumePath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o640); err != nil {
		return fmt.Errorf("write resume state: %w", err)
	}
	if err := os.Rename(tmp, s.resumePath); err != nil {
		return fmt.Errorf("replace resume state: %w", err)
	}
	return nil
}
