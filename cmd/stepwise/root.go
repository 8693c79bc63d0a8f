package main

import (
	"github.com/aretw0/stepwise/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Plan a goal, then work through it one step at a time",
	Long: `Stepwise asks a planner (an LLM, or offline templates with --fallback)
for an ordered plan and lets you execute, skip, revise or extend it step by
step, or run it unattended with --auto. Results are saved as JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Shared so that session and mcp commands see --store, --config and the planner settings.
	config.RegisterFlags(rootCmd.PersistentFlags())

	// 'run' is the default when no command is given.
	rootCmd.RunE = runCmd.RunE
}
