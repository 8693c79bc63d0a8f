/*
Package domain contains the core models of the stepwise plan runner.

It defines the plan, its steps and their status lifecycle, the execution
state that gets persisted, the planning configuration and the lifecycle
events. This package is kept pure and free of I/O and persistence.

# Key Entities

  - Plan: ordered sequence of Steps for a goal. Order is execution order.
  - Step: one unit of work. Starts pending; completed, skipped and failed are terminal.
  - ExecutionState: plan plus the rolling execution summary (the unit saved to disk).
  - Domain: planner specialisation (documentation, cicd, data, custom).
  - Event: informational lifecycle notification.

# Step lifecycle

	pending --execute ok--> completed
	pending --execute failed--> failed
	pending --skip--> skipped
	pending --revise--> pending (description replaced, number kept)
*/
package domain
