// Package orchestrator runs institution pipelines under a bounded
// worker pool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
	"github.com/lexfind/contact-crawler/internal/discovery"
	"github.com/lexfind/contact-crawler/internal/enrich"
	"github.com/lexfind/contact-crawler/internal/extract"
	"github.com/lexfind/contact-crawler/internal/metrics"
	"github.com/lexfind/contact-crawler/internal/router"
)

// errAbandoned marks an institution task cut short by cancellation.
// Nothing is flushed for an abandoned institution.
var errAbandoned = errors.New("institution task abandoned")

// Progress is a point-in-time view of the run for the status API.
type Progress struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	Total        int       `json:"total"`
	Skipped      int       `json:"skipped"`
	Completed    int       `json:"completed"`
	Failed       int       `json:"failed"`
	Abandoned    int       `json:"abandoned"`
	InFlight     int       `json:"in_flight"`
	ContactsKept int       `json:"contacts_kept"`
}

// Report summarizes a finished run.
type Report struct {
	Progress
	FinishedAt time.Time `json:"finished_at"`
}

// Orchestrator owns the worker fan-out and the per-institution pipeline.
type Orchestrator struct {
	cfg      crawler.Config
	fetcher  crawler.Fetcher
	router   *router.Router
	sink     crawler.Sink
	snapshot crawler.SnapshotStore
	notifier crawler.Notifier
	verifier crawler.EmailVerifier
	clock    crawler.Clock
	logger   *zap.Logger

	mu       sync.Mutex
	progress Progress
}

// New wires an orchestrator.
func New(cfg crawler.Config, fetcher crawler.Fetcher, rt *router.Router, sink crawler.Sink, snapshot crawler.SnapshotStore, notifier crawler.Notifier, verifier crawler.EmailVerifier, clock crawler.Clock, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		fetcher:  fetcher,
		router:   rt,
		sink:     sink,
		snapshot: snapshot,
		notifier: notifier,
		verifier: verifier,
		clock:    clock,
		logger:   logger,
	}
}

// Progress returns a copy of the current run state.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Run processes every institution not already completed, with at most
// the configured number in flight. One institution failing never aborts
// the others; cancellation lets in-flight tasks wind down without
// flushing partial results.
func (o *Orchestrator) Run(ctx context.Context, institutions []crawler.Institution) (Report, error) {
	completed, err := o.sink.LoadResumeState(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load resume state: %w", err)
	}

	o.mu.Lock()
	o.progress = Progress{
		RunID:     uuid.NewString(),
		StartedAt: o.clock.Now(),
		Total:     len(institutions),
	}
	runID := o.progress.RunID
	o.mu.Unlock()

	o.logger.Info("run starting",
		zap.String("run_id", runID),
		zap.Int("institutions", len(institutions)),
		zap.Int("already_completed", len(completed)),
		zap.Int("concurrency", o.cfg.Concurrency),
	)

	pending := make(chan crawler.Institution)
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range pending {
				o.process(ctx, inst)
			}
		}()
	}

feed:
	for _, inst := range institutions {
		if _, done := completed[inst.ID]; done {
			o.update(func(p *Progress) { p.Skipped++ })
			o.logger.Debug("skipping completed institution", zap.String("institution", inst.ID))
			continue
		}
		select {
		case pending <- inst:
		case <-ctx.Done():
			break feed
		}
	}
	close(pending)
	wg.Wait()

	if err := o.router.Checkpoint(); err != nil {
		o.logger.Error("final router checkpoint", zap.Error(err))
	}

	report := Report{Progress: o.Progress(), FinishedAt: o.clock.Now()}
	o.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed),
		zap.Int("abandoned", report.Abandoned),
		zap.Int("contacts", report.ContactsKept),
	)
	return report, ctx.Err()
}

// process runs one institution and records its terminal state.
func (o *Orchestrator) process(ctx context.Context, inst crawler.Institution) {
	metrics.IncActiveTasks()
	o.update(func(p *Progress) { p.InFlight++ })
	defer func() {
		metrics.DecActiveTasks()
		o.update(func(p *Progress) { p.InFlight-- })
	}()

	start := o.clock.Now()
	contacts, failureReason, err := o.runInstitution(ctx, inst)
	elapsed := o.clock.Now().Sub(start)

	switch {
	case errors.Is(err, errAbandoned):
		o.update(func(p *Progress) { p.Abandoned++ })
		metrics.ObserveInstitution("abandoned")
		o.logger.Warn("institution abandoned",
			zap.String("institution", inst.ID),
			zap.Duration("elapsed", elapsed),
		)
	case err != nil:
		o.update(func(p *Progress) { p.Failed++ })
		metrics.ObserveInstitution("failed")
		o.logger.Error("institution failed",
			zap.String("institution", inst.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	default:
		o.update(func(p *Progress) {
			p.Completed++
			p.ContactsKept += len(contacts)
		})
		metrics.ObserveInstitution("completed")
		for _, c := range contacts {
			metrics.ObserveContact(string(c.ConfidenceBucket()))
		}
		o.logger.Info("institution completed",
			zap.String("institution", inst.ID),
			zap.Int("contacts", len(contacts)),
			zap.String("failure_reason", failureReason),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// runInstitution walks one institution's site and flushes its full
// result set, or nothing at all.
func (o *Orchestrator) runInstitution(ctx context.Context, inst crawler.Institution) ([]crawler.ScoredContact, string, error) {
	if ctx.Err() != nil {
		return nil, "", errAbandoned
	}

	frontier, err := discovery.New(inst, o.cfg.MaxDepth, o.cfg.MaxPerLevel, o.cfg.MaxPages, o.logger)
	if err != nil {
		return nil, "", fmt.Errorf("build frontier: %w", err)
	}

	roles := extract.RolesFor(inst.Category)
	failures := make(map[crawler.FailureKind]int)
	var extracted []extract.Extracted

	home := o.fetchPage(ctx, inst, inst.BaseURL, crawler.RoleHome)
	if ctx.Err() != nil {
		return nil, "", errAbandoned
	}
	// The home page counts toward routing history like any other fetch.
	if home.OK() {
		doc, parseErr := extract.ParseDocument(home.Body)
		if parseErr != nil {
			o.router.RecordOutcome(inst.BaseURL, home.Method, false)
			o.logger.Warn("home page unparseable",
				zap.String("institution", inst.ID),
				zap.Error(parseErr),
			)
		} else {
			o.router.RecordOutcome(inst.BaseURL, home.Method, true)
			frontier.SeedFromHome(doc)
			o.saveSnapshot(ctx, inst.ID, home.URL, home.Body)
		}
	} else {
		failures[home.Failure]++
		o.router.RecordOutcome(inst.BaseURL, home.Method, false)
		// Conventional paths may still work without the home page.
		frontier.SeedFromHome(nil)
	}

	pagesFetched := 1
	for pagesFetched < o.cfg.MaxPages {
		candidate, ok := frontier.Next()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			return nil, "", errAbandoned
		}

		outcome := o.fetchPage(ctx, inst, candidate.URL, candidate.Role)
		pagesFetched++
		if ctx.Err() != nil {
			return nil, "", errAbandoned
		}
		if !outcome.OK() {
			failures[outcome.Failure]++
			o.router.RecordOutcome(candidate.URL, outcome.Method, false)
			continue
		}

		doc, parseErr := extract.ParseDocument(outcome.Body)
		if parseErr != nil {
			o.router.RecordOutcome(candidate.URL, outcome.Method, false)
			continue
		}

		pageContacts := extract.ExtractPage(doc, outcome.URL, inst, roles, o.logger)
		o.router.RecordOutcome(candidate.URL, outcome.Method, len(pageContacts) > 0)
		extracted = append(extracted, pageContacts...)

		o.saveSnapshot(ctx, inst.ID, outcome.URL, outcome.Body)
		frontier.Expand(doc, candidate.Depth)
	}

	if ctx.Err() != nil {
		return nil, "", errAbandoned
	}

	book := enrich.NewPatternBook(crawler.DomainOf(inst.BaseURL), observedEmails(extracted))
	contacts := extract.Finalize(ctx, extracted, book, o.verifier, o.clock, o.logger)
	failureReason := dominantFailure(failures)

	if err := o.sink.Append(ctx, inst.ID, contacts); err != nil {
		return nil, "", fmt.Errorf("flush institution %s: %w", inst.ID, err)
	}
	if err := o.notifier.InstitutionCompleted(ctx, inst.ID, len(contacts), failureReason); err != nil {
		o.logger.Warn("completion notify failed",
			zap.String("institution", inst.ID),
			zap.Error(err),
		)
	}
	return contacts, failureReason, nil
}

// fetchPage routes and executes one page fetch with the single-retry
// policy.
func (o *Orchestrator) fetchPage(ctx context.Context, inst crawler.Institution, url string, role crawler.PageRole) crawler.FetchOutcome {
	req := crawler.FetchRequest{
		URL:           url,
		InstitutionID: inst.ID,
		Role:          role,
		Preference:    o.cfg.FetchMethod,
	}
	method, reason := o.router.Route(req)
	o.logger.Debug("routed fetch",
		zap.String("url", url),
		zap.String("method", string(method)),
		zap.String("reason", reason),
	)
	return o.fetcher.FetchWithRetry(ctx, req, method)
}

func (o *Orchestrator) saveSnapshot(ctx context.Context, institutionID, pageURL string, body []byte) {
	if err := o.snapshot.Save(ctx, institutionID, pageURL, body); err != nil {
		o.logger.Warn("snapshot save failed",
			zap.String("institution", institutionID),
			zap.String("url", pageURL),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) update(fn func(*Progress)) {
	o.mu.Lock()
	fn(&o.progress)
	o.mu.Unlock()
}

func observedEmails(extracted []extract.Extracted) []string {
	var emails []string
	for _, e := range extracted {
		if e.Candidate.Email != "" && e.Candidate.Provenance == crawler.EmailObserved {
			emails = append(emails, e.Candidate.Email)
		}
	}
	return emails
}

// dominantFailure names the most common failure kind, for zero-contact
// completion events.
func dominantFailure(failures map[crawler.FailureKind]int) string {
	best := ""
	bestCount := 0
	for kind, n := range failures {
		if n > bestCount {
			best = string(kind)
			bestCount = n
		}
	}
	return best
}
