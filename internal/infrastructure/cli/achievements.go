package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/storage"
)

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "List the achievement catalog",
	Long: `List the achievement catalog.

Achievements are narrative hints for the generator: a requested
achievement nudges the plan toward the matching activity pattern.
They are never verified against the woven history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		requested := map[string]bool{}
		if root, err := getProjectRoot(); err == nil {
			repo := storage.NewFilesystemRepository(root)
			if cfg, err := repo.LoadConfig(); err == nil {
				for _, id := range cfg.Achievements {
					requested[id] = true
				}
			}
		}

		for _, a := range history.Catalog() {
			marker := " "
			if requested[a.ID] {
				marker = "*"
			}
			fmt.Printf("%s %-24s %s\n", marker, a.ID, a.Description)
		}
		if len(requested) > 0 {
			fmt.Println("\n* requested in this workspace")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(achievementsCmd)
}
