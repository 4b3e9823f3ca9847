package politeness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/clock/system"
)

func newTestController(defaultDelay, floor, ceiling time.Duration) *Controller {
	return New(defaultDelay, floor, ceiling, system.Clock{}, zap.NewNop())
}

func TestWaitTurnFirstRequestImmediate(t *testing.T) {
	c := newTestController(time.Second, 100*time.Millisecond, 5*time.Second)

	start := time.Now()
	require.NoError(t, c.WaitTurn(context.Background(), "law.example.edu"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitTurnSpacesSameDomainRequests(t *testing.T) {
	c := newTestController(50*time.Millisecond, 10*time.Millisecond, time.Second)

	require.NoError(t, c.WaitTurn(context.Background(), "law.example.edu"))
	start := time.Now()
	require.NoError(t, c.WaitTurn(context.Background(), "law.example.edu"))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestWaitTurnDifferentDomainsIndependent(t *testing.T) {
	c := newTestController(time.Second, 100*time.Millisecond, 5*time.Second)

	require.NoError(t, c.WaitTurn(context.Background(), "a.example.edu"))
	start := time.Now()
	require.NoError(t, c.WaitTurn(context.Background(), "b.example.edu"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitTurnHonorsContext(t *testing.T) {
	c := newTestController(5*time.Second, time.Second, 10*time.Second)
	require.NoError(t, c.WaitTurn(context.Background(), "law.example.edu"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := c.WaitTurn(ctx, "law.example.edu")
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestReportOutcomeSuccessShrinksDelay(t *testing.T) {
	c := newTestController(2*time.Second, time.Second, 60*time.Second)

	c.ReportOutcome("law.example.edu", OutcomeSuccess)
	require.Equal(t, 1800*time.Millisecond, c.CurrentDelay("law.example.edu"))
}

func TestReportOutcomeSuccessClampedToFloor(t *testing.T) {
	c := newTestController(2*time.Second, time.Second, 60*time.Second)

	for i := 0; i < 20; i++ {
		c.ReportOutcome("law.example.edu", OutcomeSuccess)
	}
	require.Equal(t, time.Second, c.CurrentDelay("law.example.edu"))
}

func TestReportOutcomeThrottledDoublesDelay(t *testing.T) {
	c := newTestController(2*time.Second, time.Second, 60*time.Second)

	c.ReportOutcome("law.example.edu", OutcomeThrottled)
	require.Equal(t, 4*time.Second, c.CurrentDelay("law.example.edu"))
	c.ReportOutcome("law.example.edu", OutcomeThrottled)
	require.Equal(t, 8*time.Second, c.CurrentDelay("law.example.edu"))
}

func TestReportOutcomeErrorGrowsDelayModerately(t *testing.T) {
	c := newTestController(2*time.Second, time.Second, 60*time.Second)

	c.ReportOutcome("law.example.edu", OutcomeError)
	require.Equal(t, 3*time.Second, c.CurrentDelay("law.example.edu"))
}

func TestReportOutcomeClampedToCeiling(t *testing.T) {
	c := newTestController(2*time.Second, time.Second, 10*time.Second)

	for i := 0; i < 10; i++ {
		c.ReportOutcome("law.example.edu", OutcomeThrottled)
	}
	require.Equal(t, 10*time.Second, c.CurrentDelay("law.example.edu"))
}

func TestDelayPerDomain(t *testing.T) {
	c := newTestController(2*time.Second, time.Second, 60*time.Second)

	c.ReportOutcome("slow.example.edu", OutcomeThrottled)
	require.Equal(t, 4*time.Second, c.CurrentDelay("slow.example.edu"))
	require.Equal(t, 2*time.Second, c.CurrentDelay("fast.example.edu"))
}
