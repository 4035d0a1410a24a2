package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var projectPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "weaver",
	Version: Version,
	Short:   "Compile and replay an AI-generated repository history",
	Long: `Weaver turns a short description of a repository into a believable
history and replays it against GitHub, one event at a time:
1. init configures the target repository and date window.
2. plan asks the generator for a chronological event plan.
3. weave replays the plan against the GitHub API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "workspace directory (defaults to the current directory)")
}
