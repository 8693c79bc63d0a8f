/*
Package observability carries lifecycle events from the engine to whoever listens.

The Bus is a typed fan-out: the engine publishes plan_start, plan_generated,
step_execute_start, step_executed, step_skipped and friends without knowing
its audience. Observers shipped here write structured logs (LogObserver) and
Prometheus metrics (Metrics); the CLI attaches its own console observer.
*/
package observability
