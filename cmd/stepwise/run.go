package main

import (
	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a plan and work through it",
	Long: `Collects a domain and goal (prompting for whatever is missing), asks the
planner for a plan and drives it interactively, or autonomously with --auto.

Use --session to checkpoint progress and resume it later.`,
	Example: `  stepwise run -d cicd -g "Build and deploy my-app to staging"
  stepwise run --auto --fallback -d data -g "Clean sales.csv" -o result.json
  stepwise run --session release --store redis://localhost:6379/0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		if err := cfg.ValidateRun(); err != nil {
			return err
		}
		return cli.Execute(cfg, cli.DefaultRunOptions(stepwise.Version))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
