package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/domain/remote"
	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

// mockRemote scripts per-event outcomes by event ID.
type mockRemote struct {
	mu          sync.Mutex
	verifyErr   error
	failEvents  map[string]error
	executed    []string
	verifyCalls int
}

func (m *mockRemote) VerifyAccess(_ context.Context, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	return m.verifyErr
}

func (m *mockRemote) ExecuteEvent(_ context.Context, ev history.HistoryEvent, _ history.WeaveConfig) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, ev.ID)
	if err, ok := m.failEvents[ev.ID]; ok {
		return "", err
	}
	return fmt.Sprintf("Executed %s: %s", ev.Kind, ev.Title), nil
}

type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (p *progressRecorder) OnEntry(run.Entry) {}

func (p *progressRecorder) OnProgress(v float64) {
	p.mu.Lock()
	p.values = append(p.values, v)
	p.mu.Unlock()
}

func weaveConfig() *history.WeaveConfig {
	return &history.WeaveConfig{
		Username:   "alice",
		Repository: "demo-repo",
		Token:      "ghp_secret",
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
		Strategy:   "github-flow",
		Intensity:  5,
	}
}

func threeEventPlan() *history.Plan {
	return &history.Plan{Events: []history.HistoryEvent{
		{ID: "e1", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Kind: history.KindCommit, Title: "First"},
		{ID: "e2", Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Kind: history.KindBranch, Title: "Second"},
		{ID: "e3", Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Kind: history.KindMerge, Title: "Third"},
	}}
}

func newTestWeaver(m *mockRemote) *WeaverService {
	svc := NewWeaverService(m)
	svc.Pacing = time.Millisecond
	return svc
}

func TestWeave_AllEventsSucceed(t *testing.T) {
	m := &mockRemote{}
	svc := newTestWeaver(m)
	rec := &progressRecorder{}
	svc.AddObserver(rec)

	outcome, err := svc.Weave(context.Background(), threeEventPlan(), weaveConfig())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Succeeded != 3 || outcome.Failed != 0 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if m.executed[0] != "e1" || m.executed[1] != "e2" || m.executed[2] != "e3" {
		t.Errorf("events executed out of order: %v", m.executed)
	}

	// One progress update per event, non-decreasing, terminal 100.
	rec.mu.Lock()
	values := append([]float64(nil), rec.values...)
	rec.mu.Unlock()
	if len(values) != 3 {
		t.Fatalf("expected 3 progress updates, got %v", values)
	}
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Errorf("progress decreased: %v", values)
		}
	}
	if values[len(values)-1] != 100 {
		t.Errorf("final progress must be 100, got %v", values[len(values)-1])
	}

	// n (info, success) pairs plus connect pair plus summary.
	var infos, successes int
	for _, e := range outcome.Entries {
		switch e.Severity {
		case run.SeverityInfo:
			infos++
		case run.SeveritySuccess:
			successes++
		}
	}
	if infos != 4 || successes != 5 {
		t.Errorf("unexpected log shape: %d info, %d success: %+v", infos, successes, outcome.Entries)
	}
}

func TestWeave_ContinuesPastEventFailure(t *testing.T) {
	m := &mockRemote{failEvents: map[string]error{"e2": errors.New("boom")}}
	svc := newTestWeaver(m)

	outcome, err := svc.Weave(context.Background(), threeEventPlan(), weaveConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.executed) != 3 {
		t.Fatalf("event 3 must still be attempted after event 2 fails, executed: %v", m.executed)
	}
	if outcome.Succeeded != 2 || outcome.Failed != 1 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}

	var sawFailure bool
	for _, e := range outcome.Entries {
		if e.Severity == run.SeverityError && strings.Contains(e.Message, "boom") {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Error("expected an error log entry carrying the failure reason")
	}
}

func TestWeave_ConnectionFailureIsFatal(t *testing.T) {
	m := &mockRemote{verifyErr: errors.New("bad credentials")}
	svc := newTestWeaver(m)
	rec := &progressRecorder{}
	svc.AddObserver(rec)

	outcome, err := svc.Weave(context.Background(), threeEventPlan(), weaveConfig())
	if err == nil {
		t.Fatal("expected error for connection failure")
	}
	if len(m.executed) != 0 {
		t.Errorf("no events may be attempted after connection failure, executed: %v", m.executed)
	}
	if outcome.Connected {
		t.Error("outcome must record the failed connection")
	}

	var errorEntries int
	for _, e := range outcome.Entries {
		if e.Severity == run.SeverityError {
			errorEntries++
		}
	}
	if errorEntries != 1 {
		t.Errorf("expected exactly one fatal log entry, got %d", errorEntries)
	}

	rec.mu.Lock()
	final := rec.values[len(rec.values)-1]
	rec.mu.Unlock()
	if final != 100 {
		t.Errorf("progress must be forced to 100 on fatal failure, got %v", final)
	}
}

func TestWeave_EmptyPlan(t *testing.T) {
	m := &mockRemote{}
	svc := newTestWeaver(m)

	outcome, err := svc.Weave(context.Background(), &history.Plan{}, weaveConfig())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Attempted() != 0 {
		t.Errorf("unexpected attempts: %+v", outcome)
	}
	for _, e := range outcome.Entries {
		if e.Severity == run.SeverityError {
			t.Errorf("unexpected error entry: %+v", e)
		}
	}
}

func TestWeave_SortsOutOfOrderPlan(t *testing.T) {
	m := &mockRemote{}
	svc := newTestWeaver(m)

	plan := &history.Plan{Events: []history.HistoryEvent{
		{ID: "late", Date: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), Kind: history.KindCommit, Title: "Late"},
		{ID: "early", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Kind: history.KindCommit, Title: "Early"},
	}}

	outcome, err := svc.Weave(context.Background(), plan, weaveConfig())
	if err != nil {
		t.Fatal(err)
	}
	if m.executed[0] != "early" || m.executed[1] != "late" {
		t.Errorf("expected chronological replay, got %v", m.executed)
	}

	var warned bool
	for _, e := range outcome.Entries {
		if e.Severity == run.SeverityWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning entry about reordering")
	}
}

func TestWeave_Cancellation(t *testing.T) {
	m := &mockRemote{}
	svc := NewWeaverService(m)
	svc.Pacing = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome, err := svc.Weave(ctx, threeEventPlan(), weaveConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(m.executed) >= 3 {
		t.Errorf("cancellation should stop the run early, executed: %v", m.executed)
	}
	if got := outcome.Entries[len(outcome.Entries)-1].Severity; got != run.SeverityWarning {
		t.Errorf("expected trailing cancellation warning, got %v", got)
	}
}

func TestWeave_RateLimitRetry(t *testing.T) {
	rateLimited := &remote.RateLimitError{Err: errors.New("secondary rate limit")}
	m := &retryOnceRemote{firstErr: rateLimited}
	svc := NewWeaverService(m)
	svc.Pacing = time.Millisecond
	svc.RetryRateLimited = true
	svc.RetryDelay = time.Millisecond

	plan := &history.Plan{Events: []history.HistoryEvent{
		{ID: "e1", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Kind: history.KindCommit, Title: "Only"},
	}}
	outcome, err := svc.Weave(context.Background(), plan, weaveConfig())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Succeeded != 1 || outcome.Failed != 0 {
		t.Errorf("expected retried event to succeed: %+v", outcome)
	}
	if m.calls != 2 {
		t.Errorf("expected 2 execution attempts, got %d", m.calls)
	}
}

type retryOnceRemote struct {
	mu       sync.Mutex
	calls    int
	firstErr error
}

func (m *retryOnceRemote) VerifyAccess(context.Context, string, string, string) error { return nil }

func (m *retryOnceRemote) ExecuteEvent(_ context.Context, ev history.HistoryEvent, _ history.WeaveConfig) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls == 1 {
		return "", m.firstErr
	}
	return "Executed " + ev.ID, nil
}
