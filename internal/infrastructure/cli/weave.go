package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/weaver/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/weaver/pkg/application"
	"github.com/felixgeelhaar/weaver/pkg/domain/remote"
	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

var (
	weaveDryRun     bool
	weavePacing     time.Duration
	weaveRetryLimit bool
)

// consoleObserver prints run activity as it happens.
type consoleObserver struct{}

func (consoleObserver) OnEntry(entry run.Entry) {
	prefix := "  "
	switch entry.Severity {
	case run.SeveritySuccess:
		prefix = "ok"
	case run.SeverityWarning:
		prefix = "!!"
	case run.SeverityError:
		prefix = "xx"
	}
	fmt.Printf("[%s] %s %s\n", entry.Timestamp.Format("15:04:05"), prefix, entry.Message)
}

func (consoleObserver) OnProgress(float64) {}

var weaveCmd = &cobra.Command{
	Use:   "weave",
	Short: "Replay the compiled plan against the GitHub API",
	Long: `Replay the compiled plan.

Events are executed strictly in order with a fixed pace between them.
A failed event is recorded and the run continues; only a failed
connection check aborts the run. The access token is read from
GITHUB_TOKEN or WEAVER_GITHUB_TOKEN and never persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}

		cfg, err := services.Store.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config (run 'weaver init' first): %w", err)
		}
		plan, err := services.Store.LoadPlan()
		if err != nil {
			fmt.Println("No stored plan; compiling one now")
			plan = services.Planner.CompilePlan(cmd.Context(), cfg)
			if err := services.Store.SavePlan(plan); err != nil {
				return fmt.Errorf("failed to save plan: %w", err)
			}
		}

		weaver := services.Weaver
		if weaveDryRun {
			weaver = application.NewWeaverService(&remote.DryRun{})
		} else {
			cfg.Token = wiring.GitHubToken()
			if cfg.Token == "" {
				return fmt.Errorf("no access token: set GITHUB_TOKEN or WEAVER_GITHUB_TOKEN")
			}
		}
		if weavePacing > 0 {
			weaver.Pacing = weavePacing
		}
		weaver.RetryRateLimited = weaveRetryLimit
		weaver.AddObserver(consoleObserver{})

		outcome, weaveErr := weaver.Weave(cmd.Context(), plan, cfg)
		if outcome != nil {
			if err := services.Store.SaveOutcome(outcome); err != nil {
				fmt.Printf("Warning: failed to save run record: %v\n", err)
			}
			notifyOutcome(cmd, outcome)
			printOutcome(outcome)
		}
		return weaveErr
	},
}

func notifyOutcome(cmd *cobra.Command, outcome *run.Outcome) {
	url := os.Getenv("WEAVER_WEBHOOK_URL")
	if url == "" {
		return
	}
	notifier := webhook.NewNotifier(webhook.Endpoint{
		URL:    url,
		Secret: os.Getenv("WEAVER_WEBHOOK_SECRET"),
	})
	if err := notifier.NotifyOutcome(cmd.Context(), outcome); err != nil {
		fmt.Printf("Warning: webhook delivery failed: %v\n", err)
	}
}

func printOutcome(outcome *run.Outcome) {
	fmt.Printf("\nRun %s finished in %s\n", outcome.RunID, outcome.FinishedAt.Sub(outcome.StartedAt).Round(time.Millisecond))
	fmt.Printf("  Events: %d succeeded, %d failed\n", outcome.Succeeded, outcome.Failed)
	fmt.Printf("  Plan:   %d commits, %d pull requests, %d issues, %d files changed\n",
		outcome.Stats.Commits, outcome.Stats.PullRequests, outcome.Stats.Issues, outcome.Stats.FilesChanged)
}

func init() {
	weaveCmd.Flags().BoolVar(&weaveDryRun, "dry-run", false, "log every event without calling the GitHub API")
	weaveCmd.Flags().DurationVar(&weavePacing, "pacing", 0, "override the delay between events")
	weaveCmd.Flags().BoolVar(&weaveRetryLimit, "retry-rate-limited", false, "retry rate-limited events once before recording failure")
	RootCmd.AddCommand(weaveCmd)
}
