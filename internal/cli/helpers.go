package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/runner"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// Without --debug only warnings reach the error stream.
func createLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	format, _ := logging.ParseFormat(cfg.LogFormat)
	if cfg.Debug {
		return logging.NewWriter(w, slog.LevelDebug, format)
	}
	return logging.NewWriter(w, slog.LevelWarn, format)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// handleExecutionError maps a user interruption to a clean exit.
// Closed input is not an interruption: the session could not finish.
func handleExecutionError(err error, sig os.Signal) error {
	if err == nil {
		return nil
	}
	if sig != nil && isInterrupted(err) {
		return nil
	}
	if errors.Is(err, runner.ErrInputClosed) {
		return fmt.Errorf("%w (use --auto or --no-interactive to run without prompts)", err)
	}
	return err
}

// ExitCode maps an error returned by the commands to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
