package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/domain/remote"
	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

// DefaultPacing is the fixed inter-event delay. It keeps the remote
// API under rate limits and makes progress observable in real time.
const DefaultPacing = 800 * time.Millisecond

// WeaverService replays a compiled plan against the remote repository,
// one event at a time, in order. A single event's failure never aborts
// the run; only the initial connection step is fatal.
type WeaverService struct {
	remote remote.Repository

	// Pacing is the delay inserted after every event, including
	// failed ones. Tests shrink it to keep runs fast.
	Pacing time.Duration

	// RetryRateLimited grants rate-limit-class failures one bounded
	// retry before they are recorded. The continue-on-failure
	// contract is unchanged either way.
	RetryRateLimited bool

	// RetryDelay is the initial backoff for the rate-limit retry.
	RetryDelay time.Duration

	observers []run.Observer
}

func NewWeaverService(repo remote.Repository) *WeaverService {
	return &WeaverService{
		remote:     repo,
		Pacing:     DefaultPacing,
		RetryDelay: time.Second,
	}
}

// AddObserver registers an observer that will be attached to the run
// context of every subsequent run.
func (s *WeaverService) AddObserver(obs run.Observer) {
	s.observers = append(s.observers, obs)
}

// Weave drives one run to completion. The returned outcome is always
// non-nil with progress terminal at 100; the error is non-nil only for
// the fatal connection-failure path and for cancellation.
func (s *WeaverService) Weave(ctx context.Context, plan *history.Plan, cfg *history.WeaveConfig) (*run.Outcome, error) {
	runID := uuid.NewString()
	rc := run.NewContext(runID)
	for _, obs := range s.observers {
		rc.Subscribe(obs)
	}

	sm, err := run.NewStateMachine(runID)
	if err != nil {
		return nil, err
	}

	outcome := &run.Outcome{
		RunID:     runID,
		StartedAt: rc.StartedAt,
	}
	finish := func() *run.Outcome {
		rc.SetProgress(100)
		outcome.FinishedAt = time.Now()
		outcome.Entries = rc.Snapshot()
		return outcome
	}

	if err := sm.Transition(run.EventConnect); err != nil {
		return nil, err
	}
	rc.Append(run.SeverityInfo, fmt.Sprintf("Connecting to %s/%s", cfg.Username, cfg.Repository))

	if err := s.remote.VerifyAccess(ctx, cfg.Token, cfg.Username, cfg.Repository); err != nil {
		rc.Append(run.SeverityError, fmt.Sprintf("Connection failed: %v", err))
		_ = sm.Transition(run.EventAbort)
		return finish(), fmt.Errorf("verify access: %w", err)
	}
	rc.Append(run.SeveritySuccess, fmt.Sprintf("Connected to %s/%s", cfg.Username, cfg.Repository))
	outcome.Connected = true

	if err := sm.Transition(run.EventBegin); err != nil {
		return nil, err
	}

	if plan == nil {
		plan = &history.Plan{}
	}
	if !plan.IsChronological() {
		rc.Append(run.SeverityWarning, "Plan events out of chronological order; sorting before replay")
		plan = plan.Sorted()
	}
	outcome.Stats = history.CollectStats(plan)

	n := plan.Len()
	for i, ev := range plan.Events {
		if ctx.Err() != nil {
			rc.Append(run.SeverityWarning, "Run canceled")
			_ = sm.Transition(run.EventAbort)
			return finish(), ctx.Err()
		}

		rc.Append(run.SeverityInfo, fmt.Sprintf("Weaving %s %d/%d: %s", ev.Kind, i+1, n, ev.Title))

		message, execErr := s.executeEvent(ctx, ev, cfg)
		if execErr != nil {
			outcome.Failed++
			rc.Append(run.SeverityError, fmt.Sprintf("%s %q failed: %v", ev.Kind, ev.Title, execErr))
		} else {
			outcome.Succeeded++
			rc.Append(run.SeveritySuccess, message)
		}

		rc.SetProgress(float64(i+1) / float64(n) * 100)

		// Pacing happens even after a failed event.
		if s.Pacing > 0 {
			select {
			case <-ctx.Done():
				rc.Append(run.SeverityWarning, "Run canceled")
				_ = sm.Transition(run.EventAbort)
				return finish(), ctx.Err()
			case <-time.After(s.Pacing):
			}
		}
	}

	_ = sm.Transition(run.EventFinish)

	severity := run.SeveritySuccess
	if outcome.Failed > 0 {
		severity = run.SeverityInfo
	}
	rc.Append(severity, fmt.Sprintf("Weave complete: %d of %d events succeeded", outcome.Succeeded, n))
	return finish(), nil
}

func (s *WeaverService) executeEvent(ctx context.Context, ev history.HistoryEvent, cfg *history.WeaveConfig) (string, error) {
	message, err := s.remote.ExecuteEvent(ctx, ev, *cfg)
	if err == nil || !s.RetryRateLimited || !remote.IsRateLimited(err) {
		return message, err
	}

	r := retry.New[string](retry.Config{
		MaxAttempts:   2,
		InitialDelay:  s.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	return r.Do(ctx, func(ctx context.Context) (string, error) {
		return s.remote.ExecuteEvent(ctx, ev, *cfg)
	})
}
