package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

func newTestRouter(t *testing.T, statsFile string) *Router {
	t.Helper()
	r, err := New(nil, nil, statsFile, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestRoutePreferenceOverridesEverything(t *testing.T) {
	r := newTestRouter(t, "")

	method, reason := r.Route(crawler.FetchRequest{
		URL:        "https://law.example.edu/about/staff",
		Preference: crawler.PreferRender,
	})
	require.Equal(t, crawler.MethodRender, method)
	require.Equal(t, "forced", reason)

	method, _ = r.Route(crawler.FetchRequest{
		URL:        "https://law.example.edu/directory/search?q=doe",
		Preference: crawler.PreferLightweight,
	})
	require.Equal(t, crawler.MethodLightweight, method)
}

func TestRouteRenderPatterns(t *testing.T) {
	r := newTestRouter(t, "")
	for _, u := range []string{
		"https://law.example.edu/directory/search?q=doe",
		"https://law.example.edu/faculty/",
		"https://law.example.edu/page?ajax=1",
		"https://law.example.edu/app#/people",
		"https://law.example.edu/api/directory?page=2",
	} {
		method, reason := r.Route(crawler.FetchRequest{URL: u, Preference: crawler.PreferAuto})
		require.Equal(t, crawler.MethodRender, method, "url %s (%s)", u, reason)
	}
}

func TestRouteLightweightPatterns(t *testing.T) {
	r := newTestRouter(t, "")
	method, reason := r.Route(crawler.FetchRequest{
		URL:        "https://law.example.edu/about/staff",
		Preference: crawler.PreferAuto,
	})
	require.Equal(t, crawler.MethodLightweight, method)
	require.Contains(t, reason, "pattern:")
}

func TestRoutePatternBeatsHistory(t *testing.T) {
	r := newTestRouter(t, "")
	for i := 0; i < 5; i++ {
		r.RecordOutcome("https://law.example.edu/page", crawler.MethodLightweight, true)
	}
	// Perfect lightweight history, but the URL matches a render pattern.
	method, reason := r.Route(crawler.FetchRequest{
		URL:        "https://law.example.edu/directory/search",
		Preference: crawler.PreferAuto,
	})
	require.Equal(t, crawler.MethodRender, method)
	require.Contains(t, reason, "pattern:")
}

func TestRouteLearnedHistory(t *testing.T) {
	r := newTestRouter(t, "")

	// Unpatterned URL on an unknown domain renders by default.
	req := crawler.FetchRequest{
		URL:        "https://law.example.edu/deans-office",
		Preference: crawler.PreferAuto,
	}
	method, reason := r.Route(req)
	require.Equal(t, crawler.MethodRender, method)
	require.Equal(t, "default", reason)

	// Two successes are below the sample floor.
	r.RecordOutcome(req.URL, crawler.MethodLightweight, true)
	r.RecordOutcome(req.URL, crawler.MethodLightweight, true)
	method, _ = r.Route(req)
	require.Equal(t, crawler.MethodRender, method)

	// Three of four is above the 70% threshold.
	r.RecordOutcome(req.URL, crawler.MethodLightweight, true)
	r.RecordOutcome(req.URL, crawler.MethodLightweight, false)
	method, reason = r.Route(req)
	require.Equal(t, crawler.MethodLightweight, method)
	require.Contains(t, reason, "history:")
}

func TestRouteHistoryBelowThresholdStaysRender(t *testing.T) {
	r := newTestRouter(t, "")
	req := crawler.FetchRequest{
		URL:        "https://law.example.edu/deans-office",
		Preference: crawler.PreferAuto,
	}
	r.RecordOutcome(req.URL, crawler.MethodLightweight, true)
	r.RecordOutcome(req.URL, crawler.MethodLightweight, false)
	r.RecordOutcome(req.URL, crawler.MethodLightweight, false)
	method, _ := r.Route(req)
	require.Equal(t, crawler.MethodRender, method)
}

func TestCheckpointRoundTrip(t *testing.T) {
	statsFile := filepath.Join(t.TempDir(), "stats", "router.json")

	r := newTestRouter(t, statsFile)
	for i := 0; i < 4; i++ {
		r.RecordOutcome("https://law.example.edu/deans-office", crawler.MethodLightweight, true)
	}
	require.NoError(t, r.Checkpoint())

	reloaded := newTestRouter(t, statsFile)
	method, reason := reloaded.Route(crawler.FetchRequest{
		URL:        "https://law.example.edu/deans-office",
		Preference: crawler.PreferAuto,
	})
	require.Equal(t, crawler.MethodLightweight, method)
	require.Contains(t, reason, "history:")
}

func TestCheckpointEveryTenOutcomes(t *testing.T) {
	statsFile := filepath.Join(t.TempDir(), "router.json")
	r := newTestRouter(t, statsFile)

	for i := 0; i < 9; i++ {
		r.RecordOutcome("https://law.example.edu/deans-office", crawler.MethodRender, true)
	}
	_, err := os.Stat(statsFile)
	require.True(t, os.IsNotExist(err), "no checkpoint before the tenth outcome")

	r.RecordOutcome("https://law.example.edu/deans-office", crawler.MethodRender, true)
	_, err = os.Stat(statsFile)
	require.NoError(t, err)
}

func TestCorruptStatsFileStartsFresh(t *testing.T) {
	statsFile := filepath.Join(t.TempDir(), "router.json")
	require.NoError(t, os.WriteFile(statsFile, []byte("{not json"), 0o600))

	r := newTestRouter(t, statsFile)
	method, reason := r.Route(crawler.FetchRequest{
		URL:        "https://law.example.edu/deans-office",
		Preference: crawler.PreferAuto,
	})
	require.Equal(t, crawler.MethodRender, method)
	require.Equal(t, "default", reason)
}
