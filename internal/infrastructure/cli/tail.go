package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/internal/infrastructure/watch"
	"github.com/felixgeelhaar/weaver/pkg/storage"
)

var tailFollow bool

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the last run log, optionally following updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)

		printed := 0
		printNew := func() {
			outcome, err := repo.LoadOutcome()
			if err != nil {
				return
			}
			if len(outcome.Entries) < printed {
				// A new run replaced the record; start over.
				printed = 0
			}
			for _, entry := range outcome.Entries[printed:] {
				fmt.Printf("[%s] %-7s %s\n", entry.Timestamp.Format("15:04:05"), entry.Severity, entry.Message)
			}
			printed = len(outcome.Entries)
		}

		if repo.HasOutcome() {
			printNew()
		} else if !tailFollow {
			return fmt.Errorf("no run record yet (run 'weaver weave' first)")
		}

		if !tailFollow {
			return nil
		}

		follower, err := watch.NewFollower(repo.RunLogPath(), 250*time.Millisecond, printNew)
		if err != nil {
			return err
		}
		fmt.Println("Following run log... (Ctrl+C to stop)")
		if err := follower.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "keep watching for new entries")
	RootCmd.AddCommand(tailCmd)
}
