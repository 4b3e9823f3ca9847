// Package router decides, per URL, between a lightweight document fetch
// and a full script-executing render.
//
// URL-pattern rules always take precedence; learned per-domain success
// ratios are advisory input to an otherwise deterministic decision.
package router

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// Lightweight fetches on a domain must have succeeded at this rate,
// over at least minSamples attempts, before history alone routes away
// from rendering.
const (
	lightweightSuccessThreshold = 0.7
	minSamples                  = 3
	checkpointEvery             = 10
)

// DefaultRenderPatterns match URLs that almost always need script
// execution: search endpoints, fragment-routed SPA paths, API-shaped
// directory endpoints, and people-listing paths.
var DefaultRenderPatterns = []string{
	`/directory/search`,
	`/people/search`,
	`/staff/ajax`,
	`/faculty/ajax`,
	`\?ajax=`,
	`#/people`,
	`#/staff`,
	`/api/directory`,
	`/directory\?`,
	`/faculty-staff/?\?`,
	`/expert-directory`,
	`/(directory|faculty|staff|people|experts?)(/|$)`,
}

// DefaultLightweightPatterns match simple informational paths that are
// reliably server-rendered.
var DefaultLightweightPatterns = []string{
	`/about/staff`,
	`/about/faculty`,
	`/contact$`,
	`/administration$`,
}

type domainStats struct {
	LightSuccess  int            `json:"light_success"`
	LightTotal    int            `json:"light_total"`
	RenderSuccess int            `json:"render_success"`
	RenderTotal   int            `json:"render_total"`
	LastMethod    crawler.Method `json:"last_method,omitempty"`
}

func (s *domainStats) lightRate() float64 {
	if s.LightTotal == 0 {
		return 0
	}
	return float64(s.LightSuccess) / float64(s.LightTotal)
}

// Router routes fetch requests and learns from their outcomes.
type Router struct {
	mu       sync.Mutex
	stats    map[string]*domainStats
	recorded int

	renderPatterns []*regexp.Regexp
	lightPatterns  []*regexp.Regexp

	statsFile string
	logger    *zap.Logger
}

// New compiles the pattern tables and loads any checkpointed domain
// statistics from statsFile (empty disables persistence).
func New(renderPatterns, lightPatterns []string, statsFile string, logger *zap.Logger) (*Router, error) {
	if len(renderPatterns) == 0 {
		renderPatterns = DefaultRenderPatterns
	}
	if len(lightPatterns) == 0 {
		lightPatterns = DefaultLightweightPatterns
	}
	render, err := compileAll(renderPatterns)
	if err != nil {
		return nil, fmt.Errorf("render patterns: %w", err)
	}
	light, err := compileAll(lightPatterns)
	if err != nil {
		return nil, fmt.Errorf("lightweight patterns: %w", err)
	}
	r := &Router{
		stats:          make(map[string]*domainStats),
		renderPatterns: render,
		lightPatterns:  light,
		statsFile:      statsFile,
		logger:         logger,
	}
	r.load()
	return r, nil
}

// Route returns the fetch method for the request and the reason the
// decision was made.
func (r *Router) Route(req crawler.FetchRequest) (crawler.Method, string) {
	switch req.Preference {
	case crawler.PreferRender:
		return crawler.MethodRender, "forced"
	case crawler.PreferLightweight:
		return crawler.MethodLightweight, "forced"
	}

	lower := strings.ToLower(req.URL)
	for _, p := range r.renderPatterns {
		if p.MatchString(lower) {
			return crawler.MethodRender, "pattern:" + p.String()
		}
	}
	for _, p := range r.lightPatterns {
		if p.MatchString(lower) {
			return crawler.MethodLightweight, "pattern:" + p.String()
		}
	}

	domain := crawler.DomainOf(req.URL)
	r.mu.Lock()
	st, ok := r.stats[domain]
	var rate float64
	var total int
	if ok {
		rate = st.lightRate()
		total = st.LightTotal
	}
	r.mu.Unlock()

	if ok && total >= minSamples && rate > lightweightSuccessThreshold {
		return crawler.MethodLightweight, fmt.Sprintf("history:light_rate=%.0f%%", rate*100)
	}
	// Unknown domains favor completeness over speed.
	return crawler.MethodRender, "default"
}

// RecordOutcome feeds a completed fetch back into the learned domain
// statistics. A fetch counts as a success only when it yielded
// extractable content. This is the single writer of learning state.
func (r *Router) RecordOutcome(rawURL string, method crawler.Method, extractable bool) {
	domain := crawler.DomainOf(rawURL)

	r.mu.Lock()
	st, ok := r.stats[domain]
	if !ok {
		st = &domainStats{}
		r.stats[domain] = st
	}
	switch method {
	case crawler.MethodLightweight:
		st.LightTotal++
		if extractable {
			st.LightSuccess++
		}
	case crawler.MethodRender:
		st.RenderTotal++
		if extractable {
			st.RenderSuccess++
		}
	}
	st.LastMethod = method
	r.recorded++
	shouldCheckpoint := r.statsFile != "" && r.recorded%checkpointEvery == 0
	r.mu.Unlock()

	if shouldCheckpoint {
		if err := r.Checkpoint(); err != nil {
			r.logger.Error("checkpoint router stats", zap.Error(err))
		}
	}
}

// Checkpoint writes the learned statistics atomically via a temp-file
// rename so a crash never leaves a truncated stats file.
func (r *Router) Checkpoint() error {
	if r.statsFile == "" {
		return nil
	}
	r.mu.Lock()
	payload, err := json.MarshalIndent(r.stats, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal router stats: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.statsFile), 0o750); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}
	tmp := r.statsFile + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write router stats: %w", err)
	}
	if err := os.Rename(tmp, r.statsFile); err != nil {
		return fmt.Errorf("replace router stats: %w", err)
	}
	return nil
}

func (r *Router) load() {
	if r.statsFile == "" {
		return
	}
	payload, err := os.ReadFile(r.statsFile)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Error("read router stats", zap.Error(err))
		}
		return
	}
	stats := make(map[string]*domainStats)
	if err := json.Unmarshal(payload, &stats); err != nil {
		r.logger.Error("parse router stats, starting fresh", zap.Error(err))
		return
	}
	r.mu.Lock()
	r.stats = stats
	r.mu.Unlock()
	r.logger.Info("loaded router stats", zap.Int("domains", len(stats)))
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		p, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", raw, err)
		}
		out = append(out, p)
	}
	return out, nil
}
