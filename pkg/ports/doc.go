/*
Package ports defines the driven ports (interfaces) of the stepwise engine.

These interfaces decouple the core loop from external implementations, allowing
the runner to work with different planners and storage backends.

# Key Interfaces

  - Planner: produces plans, executes steps, proposes continuations and summaries.
  - StateStore: persists and loads session checkpoints (file, Redis, SQLite, memory).
  - SessionLocker: prevents two processes from driving the same checkpointed session.
*/
package ports
