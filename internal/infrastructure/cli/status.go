package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/domain/run"
	"github.com/felixgeelhaar/weaver/pkg/storage"
)

var statusJSON bool

// statusJSONOutput represents the JSON output format for status
type statusJSONOutput struct {
	Repository string            `json:"repository"`
	Window     string            `json:"window,omitempty"`
	PlanEvents int               `json:"plan_events"`
	PlanStats  *history.RunStats `json:"plan_stats,omitempty"`
	LastRun    *run.Outcome      `json:"last_run,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workspace configuration, plan, and last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)
		if !repo.IsInitialized() {
			return fmt.Errorf("workspace not initialized (run 'weaver init' first)")
		}

		cfg, err := repo.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		out := statusJSONOutput{
			Repository: cfg.Username + "/" + cfg.Repository,
			Window:     cfg.StartDate + " to " + cfg.EndDate,
		}
		plan, err := repo.LoadPlan()
		if err == nil {
			out.PlanEvents = plan.Len()
			stats := history.CollectStats(plan)
			out.PlanStats = &stats
		}
		if repo.HasOutcome() {
			if outcome, err := repo.LoadOutcome(); err == nil {
				out.LastRun = outcome
			}
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Printf("Repository: %s\n", out.Repository)
		fmt.Printf("Window:     %s\n", out.Window)
		fmt.Printf("Strategy:   %s (intensity %d)\n", cfg.Strategy, cfg.Intensity)
		if cfg.Stack != "" {
			fmt.Printf("Stack:      %s\n", cfg.Stack)
		}
		if plan != nil {
			fmt.Printf("Plan:       %d events (%s)\n", out.PlanEvents, planStats(plan))
		} else {
			fmt.Println("Plan:       none (run 'weaver plan')")
		}
		if out.LastRun != nil {
			fmt.Printf("Last run:   %s, %d succeeded, %d failed\n",
				out.LastRun.FinishedAt.Format("2006-01-02 15:04"), out.LastRun.Succeeded, out.LastRun.Failed)
		} else {
			fmt.Println("Last run:   none")
		}
		return nil
	},
}

func planStats(p *history.Plan) string {
	stats := history.CollectStats(p)
	return fmt.Sprintf("%d commits, %d pull requests, %d issues",
		stats.Commits, stats.PullRequests, stats.Issues)
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(statusCmd)
}
