// Package debugger attaches an external debugger to a process and streams
// its transcript into a crash artifact.
//
// The orchestrator owns the child process for the duration of one call: it
// creates the command pipe, starts the debugger with the artifact as its
// standard output and an empty environment, feeds it a fixed script, and
// waits for it to exit. The wait is bounded by a timeout.
package debugger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/locator"
)

// ErrUnavailable is returned when the program or debugger path is unknown.
// No process is started in that case.
var ErrUnavailable = errors.New("extended backtrace not available")

// ErrTimeout is returned when the debugger did not finish in time.
var ErrTimeout = errors.New("debugger timed out")

// waitDelay bounds how long Wait keeps going after the debugger was killed.
const waitDelay = 2 * time.Second

// Tools are the locations resolved at startup.
type Tools struct {
	Program  locator.ToolLocation
	Debugger locator.ToolLocation
}

// Backend describes how to drive one debugger.
type Backend interface {
	// Name is used in artifact notes ("GDB not available").
	Name() string
	// Section is the artifact label preceding the transcript.
	Section() string
	// Command returns the executable to start and its arguments.
	Command(tools Tools, pid int) (path string, args []string)
	// Script is written to the debugger's standard input. It may be empty.
	Script() []byte
}

// ExitError reports a debugger that exited unsuccessfully.
type ExitError struct {
	Status int
	Signal os.Signal
}

func (e *ExitError) Error() string {
	if e.Signal != nil {
		return fmt.Sprintf("debugger terminated by signal %v", e.Signal)
	}
	return fmt.Sprintf("debugger exited with status %d", e.Status)
}

// Config configures an Orchestrator.
type Config struct {
	Tools   Tools
	Backend Backend
	// PID is the process to attach to. Zero means the current process.
	PID int
	// Timeout bounds the wait for the debugger. Zero waits forever.
	Timeout time.Duration
}

// Orchestrator runs one debugger session per call.
type Orchestrator struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates an Orchestrator.
func New(cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.PID == 0 {
		cfg.PID = os.Getpid()
	}
	if cfg.Backend == nil {
		cfg.Backend = GDB{}
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logger.With().Str("component", "debugger").Logger(),
	}
}

// Tools returns the locations the orchestrator was created with.
func (o *Orchestrator) Tools() Tools {
	return o.cfg.Tools
}

// RunExtendedBacktrace attaches the debugger and writes its output to out.
// Every failure is also noted in out; the returned error is informational.
func (o *Orchestrator) RunExtendedBacktrace(ctx context.Context, out *os.File) error {
	backend := o.cfg.Backend
	tools := o.cfg.Tools

	if !tools.Program.Available || !tools.Debugger.Available {
		note := artifact.NoExtendedSection
		if !tools.Program.Available {
			note += "- Program path not available\n"
		}
		if !tools.Debugger.Available {
			note += "- " + backend.Name() + " not available\n"
		}
		_, _ = out.WriteString(note)
		return ErrUnavailable
	}

	path, args := backend.Command(tools, o.cfg.PID)

	stdin, script, err := os.Pipe()
	if err != nil {
		_, _ = out.WriteString("Pipe failed\n")
		return fmt.Errorf("failed to create debugger pipe: %w", err)
	}
	defer stdin.Close()
	defer script.Close()

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = stdin
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	cmd.Env = []string{}
	cmd.WaitDelay = waitDelay
	setupProcAttr(cmd)

	_, _ = out.WriteString(backend.Section())
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(out, "execve(%q) failed\n", backend.Name())
		o.logger.Error().Err(err).Str("path", path).Msg("Failed to start debugger")
		return fmt.Errorf("failed to start %s: %w", backend.Name(), err)
	}
	o.logger.Debug().Int("pid", cmd.Process.Pid).Str("path", path).Msg("Started debugger")

	// The child holds its own copy of the read end.
	stdin.Close()
	if _, err := script.Write(backend.Script()); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to write debugger script")
	}
	script.Close()

	err = cmd.Wait()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		fmt.Fprintf(out, "%s timed out after %s\n", backend.Name(), o.cfg.Timeout)
		o.logger.Error().Dur("timeout", o.cfg.Timeout).Msgf("%s timed out", backend.Name())
		return ErrTimeout
	}

	fmt.Fprintf(out, "%s failed\n", backend.Name())
	exitErr := exitError(err)
	o.logger.Error().Err(exitErr).Msgf("%s failed", backend.Name())
	return exitErr
}

// exitError maps a Wait error to an ExitError when the child ran.
func exitError(err error) error {
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err
	}
	result := &ExitError{Status: ee.ExitCode()}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		result.Signal = ws.Signal()
	}
	return result
}
