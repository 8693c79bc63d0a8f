/*
Package stepwise turns a goal into an ordered plan and walks it one step at a time.

A planner (an LLM or the offline template planner) proposes the steps. The
user then executes, skips or revises each one, asks for more steps or a
summary, and saves the resulting state as JSON. The same loop can run
unattended with --auto.

# Layout

  - pkg/domain: plans, steps, execution state and lifecycle events.
  - pkg/ports: the Planner, StateStore and SessionLocker contracts.
  - pkg/planner: the LLM (langchaingo) and offline (YAML templates) planners.
  - internal/runtime: the stateless engine applying planner outcomes to a state.
  - pkg/runner: the interactive and autonomous terminal drivers.
  - pkg/session: lock-guarded access to checkpoints.
  - internal/adapters: file, Redis, SQLite and HTTP adapters.
  - pkg/adapters/mcp: the engine exposed as Model Context Protocol tools.
  - cmd/stepwise: the command-line entry point.

# Usage

	stepwise --domain cicd --goal "Build and deploy my-app to staging"
	stepwise --auto --fallback -d data -g "Clean sales.csv" -o result.json
*/
package stepwise
