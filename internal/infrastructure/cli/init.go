package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
	"github.com/felixgeelhaar/weaver/pkg/storage"
)

var (
	initUser         string
	initRepo         string
	initStart        string
	initEnd          string
	initStack        string
	initStrategy     string
	initIntensity    int
	initLFS          bool
	initAchievements []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a weaver workspace for a target repository",
	Long: `Initialize a weaver workspace.

The configuration describes the repository whose history will be
woven: its owner, date window, technology stack, branching strategy,
and activity intensity. The access token is never stored; it is read
from GITHUB_TOKEN (or WEAVER_GITHUB_TOKEN) at weave time.

Suggested stacks: ` + strings.Join(history.StackSuggestions, ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}

		cfg := &history.WeaveConfig{
			Username:     initUser,
			Repository:   initRepo,
			StartDate:    initStart,
			EndDate:      initEnd,
			Stack:        initStack,
			Strategy:     initStrategy,
			Intensity:    initIntensity,
			IncludeLFS:   initLFS,
			Achievements: initAchievements,
		}
		if err := history.ValidateConfig(cfg); err != nil {
			return err
		}
		if unknown := history.UnknownAchievements(cfg); len(unknown) > 0 {
			fmt.Printf("Note: unknown achievements forwarded as hints: %s\n", strings.Join(unknown, ", "))
		}

		repo := storage.NewFilesystemRepository(root)
		if err := repo.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}
		if err := repo.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Successfully initialized weaver workspace for %s/%s (%s to %s)\n",
			cfg.Username, cfg.Repository, cfg.StartDate, cfg.EndDate)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initUser, "user", "", "GitHub username that owns the repository")
	initCmd.Flags().StringVar(&initRepo, "repo", "", "target repository name")
	initCmd.Flags().StringVar(&initStart, "start", "", "history window start date (YYYY-MM-DD)")
	initCmd.Flags().StringVar(&initEnd, "end", "", "history window end date (YYYY-MM-DD)")
	initCmd.Flags().StringVar(&initStack, "stack", "", "technology stack described to the generator")
	initCmd.Flags().StringVar(&initStrategy, "strategy", string(history.StrategyGitHubFlow), "branching strategy (gitflow, github-flow, trunk)")
	initCmd.Flags().IntVar(&initIntensity, "intensity", 5, "activity intensity from 1 (sparse) to 10 (dense)")
	initCmd.Flags().BoolVar(&initLFS, "lfs", false, "mention large binary assets in the generated history")
	initCmd.Flags().StringSliceVar(&initAchievements, "achievements", nil, "achievement hints for the generator (see 'weaver achievements')")

	RootCmd.AddCommand(initCmd)
}
