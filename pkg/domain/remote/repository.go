// Package remote defines the contract for the hosting-service
// collaborator that performs one remote mutation per history event.
package remote

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
)

// Repository is the remote-repository collaborator. VerifyAccess is
// called once at the start of a run; ExecuteEvent once per plan event.
// Implementations map each event kind to the correct remote mutation
// and are responsible for the internal consistency of multi-step
// mutations; the executor only sequences whole events.
type Repository interface {
	VerifyAccess(ctx context.Context, token, owner, repo string) error
	ExecuteEvent(ctx context.Context, event history.HistoryEvent, cfg history.WeaveConfig) (string, error)
}

// RateLimitError marks a failure caused by remote rate limiting.
// The executor gives these one bounded retry before recording them.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return "remote rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a rate-limit-class failure.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
