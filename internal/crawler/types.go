// Package crawler defines core types shared across subsystems.
package crawler

import (
	"net/url"
	"strings"
	"time"
)

// Category identifies which of the two institution kinds a target belongs to.
type Category string

// Institution categories recognized by the role taxonomy.
const (
	CategoryLawSchool        Category = "law-school"
	CategoryParalegalProgram Category = "paralegal-program"
)

// Institution is one crawl target. Produced by the target-discovery
// collaborator and consumed read-only.
type Institution struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Region   string   `json:"region"`
	BaseURL  string   `json:"base_url"`
}

// PageRole hints at what kind of page a URL is expected to be.
type PageRole string

// Page role hints attached to fetch requests.
const (
	RoleHome      PageRole = "home"
	RoleDirectory PageRole = "directory"
	RoleProfile   PageRole = "profile"
)

// Method is the fetch mechanism chosen for a request.
type Method string

// Fetch methods.
const (
	MethodLightweight Method = "lightweight"
	MethodRender      Method = "render"
)

// Preference is a caller-supplied routing override.
type Preference string

// Routing preferences.
const (
	PreferAuto        Preference = "auto"
	PreferRender      Preference = "render"
	PreferLightweight Preference = "lightweight"
)

// FetchRequest captures everything needed to fetch one URL.
type FetchRequest struct {
	URL           string
	InstitutionID string
	Role          PageRole
	Preference    Preference
}

// FailureKind classifies a failed fetch.
type FailureKind string

// Failure kinds, per the error taxonomy.
const (
	FailTimeout    FailureKind = "timeout"
	FailBlocked    FailureKind = "blocked"
	FailNotFound   FailureKind = "not-found"
	FailTransport  FailureKind = "transport-error"
	FailPoolClosed FailureKind = "pool-closed"
)

// FetchOutcome is the tagged result of one fetch attempt.
type FetchOutcome struct {
	URL        string
	Method     Method
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
	Failure    FailureKind
	Err        error
}

// OK reports whether the fetch yielded a usable document.
func (o FetchOutcome) OK() bool {
	return o.Failure == "" && o.Err == nil
}

// FastFail reports whether the outcome belongs to a definitive HTTP
// failure class that must not be retried within a run.
func (o FetchOutcome) FastFail() bool {
	switch o.StatusCode {
	case 403, 404, 410, 451, 500, 502, 503:
		return true
	}
	return o.Failure == FailNotFound
}

// EmailProvenance records how a contact's email was obtained.
type EmailProvenance string

// Email provenance values.
const (
	EmailObserved    EmailProvenance = "observed"
	EmailConstructed EmailProvenance = "constructed"
	EmailNone        EmailProvenance = ""
)

// ContactCandidate is a raw extracted contact, before scoring.
type ContactCandidate struct {
	FullName      string
	FirstName     string
	LastName      string
	Title         string
	Email         string
	Phone         string
	SourceURL     string
	InstitutionID string
	Provenance    EmailProvenance
}

// Bucket labels a confidence score for downstream consumers.
type Bucket string

// Confidence buckets.
const (
	BucketHigh        Bucket = "high"
	BucketMedium      Bucket = "medium"
	BucketNeedsReview Bucket = "needs-review"
)

// ScoredContact is the unit persisted to the result sink.
type ScoredContact struct {
	ContactCandidate

	MatchedRole   string
	TitleStrength int
	Confidence    int
	ExtractedAt   time.Time
}

// ConfidenceBucket maps the unclamped score onto the three reporting tiers.
func (s ScoredContact) ConfidenceBucket() Bucket {
	switch {
	case s.Confidence >= 75:
		return BucketHigh
	case s.Confidence >= 50:
		return BucketMedium
	default:
		return BucketNeedsReview
	}
}

// DomainOf extracts the lowercase host portion of a URL, falling back to
// the raw string when it does not parse. Used as the key for all
// per-domain learned state.
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.ToLower(parsed.Host)
}
