package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planShow bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compile an event plan with the configured generator",
	Long: `Compile an event plan.

The generator is asked for a chronological sequence of repository
events inside the configured date window. When the generator is
unreachable or returns unusable output, a minimal deterministic plan
is compiled instead so that a weave is always possible.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}

		cfg, err := services.Store.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config (run 'weaver init' first): %w", err)
		}

		plan := services.Planner.CompilePlan(cmd.Context(), cfg)
		if err := services.Store.SavePlan(plan); err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}

		stats := planStats(plan)
		fmt.Printf("Compiled plan with %d events (%s)\n", plan.Len(), stats)

		if planShow {
			for i, ev := range plan.Events {
				fmt.Printf("%3d. %s  %-6s  %s\n", i+1, ev.Date.Format("2006-01-02"), ev.Kind, ev.Title)
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planShow, "show", false, "print every planned event")
	RootCmd.AddCommand(planCmd)
}
