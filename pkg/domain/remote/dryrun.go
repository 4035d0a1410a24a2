package remote

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
)

// DryRun is a Repository that performs no remote mutations. Used for
// offline rehearsal of a plan before pointing the weaver at a real
// repository.
type DryRun struct{}

func (DryRun) VerifyAccess(_ context.Context, _, owner, repo string) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("owner and repository are required")
	}
	return nil
}

func (DryRun) ExecuteEvent(_ context.Context, event history.HistoryEvent, _ history.WeaveConfig) (string, error) {
	return fmt.Sprintf("[dry-run] would execute %s: %s", event.Kind, event.Title), nil
}
