package main

import (
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage checkpointed sessions",
	Long:  `List, inspect, and remove sessions checkpointed with --session in the configured --store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List checkpointed sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		return cli.ListSessions(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the plan of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return cli.InspectSession(cmd.Context(), cfg, args[0], format, cmd.OutOrStdout())
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		return cli.RemoveSession(cmd.Context(), cfg, args, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)

	sessionInspectCmd.Flags().String("format", cli.FormatPlan, "Output format: plan, json or mermaid")
}
