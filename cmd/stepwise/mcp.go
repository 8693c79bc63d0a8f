package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/adapters/mcp"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/planner"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the planning engine as MCP tools (generate_plan, execute_step,
skip_step, revise_step, continue_plan, summarize) so that AI agents can drive
a plan. Every tool takes and returns the full execution state as JSON, or a
session_id stored in --store.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		format, _ := logging.ParseFormat(cfg.LogFormat)
		logger := logging.New(level, format)
		// Stdout carries JSON-RPC.
		log.SetOutput(os.Stderr)

		router := planner.NewRouter(cfg.PlannerConfig(),
			planner.WithLogger(logger),
			planner.WithTemplates(cfg.Templates),
			planner.WithOpenAI(cfg.Model, cfg.BaseURL, cfg.APIKey),
		)
		if _, err := router.For(domain.DomainCustom); err != nil {
			return err
		}

		manager, closeStore, err := cli.OpenSessions(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		bus := observability.NewBus()
		bus.Subscribe(observability.LogObserver(logger))
		engine := runtime.NewEngine(router,
			runtime.WithBus(bus),
			runtime.WithLogger(logger),
		)
		srv := mcp.NewServer(engine, stepwise.Version, mcp.WithStore(manager), mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting stepwise MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8080", "Address to listen on (only for SSE)")
}
