package wiring

import (
	"fmt"
	"os"

	infraai "github.com/felixgeelhaar/weaver/pkg/ai"
	"github.com/felixgeelhaar/weaver/pkg/application"
	domainai "github.com/felixgeelhaar/weaver/pkg/domain/ai"
	"github.com/felixgeelhaar/weaver/pkg/domain/remote"
	"github.com/felixgeelhaar/weaver/pkg/infrastructure/github"
	"github.com/felixgeelhaar/weaver/pkg/storage"
)

// AppServices exposes the application layer wired together with a
// workspace root.
type AppServices struct {
	Store    *storage.FilesystemRepository
	Planner  *application.PlannerService
	Weaver   *application.WeaverService
	Remote   remote.Repository
	Provider domainai.Provider
}

// BuildAppServices constructs the service graph for a workspace. When
// the AI provider config cannot be loaded, the run degrades to the
// local ollama default and the load error is returned alongside the
// usable services.
func BuildAppServices(root string, diag application.DiagnosticFunc) (*AppServices, error) {
	provider, err := LoadAIProvider(root)
	var loadErr error
	if err != nil {
		loadErr = fmt.Errorf("AI provider config fallback: %w", err)
		fallback, fallbackErr := infraai.GetDefaultProvider("ollama", "llama3")
		if fallbackErr != nil {
			return nil, fmt.Errorf("fallback AI provider failed: %w", fallbackErr)
		}
		provider = infraai.NewResilientProvider(fallback)
	}

	planner := application.NewPlannerService(provider, diag)

	client := github.NewClient()
	client.SetReviewer(planner)

	weaver := application.NewWeaverService(client)

	services := &AppServices{
		Store:    storage.NewFilesystemRepository(root),
		Planner:  planner,
		Weaver:   weaver,
		Remote:   client,
		Provider: provider,
	}
	return services, loadErr
}

// GitHubToken resolves the personal access token used for replay. It
// is read per invocation and never persisted to the workspace.
func GitHubToken() string {
	if token := os.Getenv("WEAVER_GITHUB_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("GITHUB_TOKEN")
}
