/*
Package runner drives a plan session from the terminal.

It owns the ExecutionState of one session and is the only thing that
replaces it: every user action goes through the stateless engine and the
returned state becomes the current one, checkpointed to the configured
store when a session ID is set.

# Modes

  - RunInteractive: shows the current step, asks for an Action (execute,
    skip, revise, continue plan, show plan, summary, auto-execute
    remainder, save, exit) and loops until no step is pending.
  - RunAuto: executes every pending step unattended, then summarises and
    writes the output file.

# Usage

	r := runner.New(engine,
		runner.WithPrompter(runner.NewTextPrompter(os.Stdin, os.Stdout)),
		runner.WithOutput("result.json"),
	)
	res, err := r.RunInteractive(ctx, state)
*/
package runner
