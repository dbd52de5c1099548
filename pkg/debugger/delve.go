package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-delve/delve/service/api"
	"github.com/go-delve/delve/service/rpc2"
	"github.com/rs/zerolog"

	"github.com/willibrandon/faultline/pkg/artifact"
)

// HelperArg marks a re-exec of the program as the Delve helper. A process
// cannot drive a debugger that has halted it, so the crashing program starts
// a copy of itself which attaches dlv and writes the transcript.
const HelperArg = "__faultline-delve-helper"

// DefaultDelveDepth is the stack depth requested per goroutine.
const DefaultDelveDepth = 50

const (
	dialInterval = 100 * time.Millisecond
	dialAttempts = 100
)

// Delve drives dlv through the helper process. Depth is the number of frames
// loaded per goroutine. Helper is the executable run in helper mode; it
// defaults to the program being debugged, which then must call crash.Setup.
type Delve struct {
	Depth  int
	Helper string
}

func (Delve) Name() string    { return "Delve" }
func (Delve) Section() string { return artifact.DelveSection }

// Command re-executes the helper:
// <helper> HelperArg <dlv> <pid> <program> <depth>.
func (d Delve) Command(tools Tools, pid int) (string, []string) {
	helper := d.Helper
	if helper == "" {
		helper = tools.Program.Path
	}
	return helper, []string{
		HelperArg,
		tools.Debugger.Path,
		strconv.Itoa(pid),
		tools.Program.Path,
		strconv.Itoa(d.depth()),
	}
}

func (Delve) Script() []byte { return nil }

func (d Delve) depth() int {
	if d.Depth <= 0 {
		return DefaultDelveDepth
	}
	return d.Depth
}

// IsHelper reports whether args (os.Args) request helper mode.
func IsHelper(args []string) bool {
	return len(args) > 1 && args[1] == HelperArg
}

// findFreePort finds an available TCP port on localhost
func findFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// RunDelveHelper implements helper mode. args is os.Args; the transcript is
// written to out, which the orchestrator connected to the artifact.
func RunDelveHelper(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	if !IsHelper(args) || len(args) < 5 {
		return fmt.Errorf("usage: %s %s <dlv> <pid> <program> [depth]", args[0], HelperArg)
	}
	dlvPath, program := args[2], args[4]
	pid, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid pid %q: %w", args[3], err)
	}
	depth := DefaultDelveDepth
	if len(args) > 5 {
		if depth, err = strconv.Atoi(args[5]); err != nil {
			return fmt.Errorf("invalid depth %q: %w", args[5], err)
		}
	}

	port, err := findFreePort()
	if err != nil {
		return fmt.Errorf("failed to find free port for delve: %w", err)
	}
	listen := "127.0.0.1:" + strconv.Itoa(port)

	dlvCmd := exec.CommandContext(ctx, dlvPath,
		"attach", strconv.Itoa(pid), program,
		"--headless",
		"--listen="+listen,
		"--api-version=2",
	)
	dlvCmd.Stdout = os.Stderr
	dlvCmd.Stderr = os.Stderr
	if err := dlvCmd.Start(); err != nil {
		return fmt.Errorf("failed to start delve process: %w", err)
	}
	logger.Debug().Int("pid", pid).Str("listen", listen).Msg("Started Delve headless server")

	client, err := dialDelve(ctx, listen)
	if err != nil {
		_ = dlvCmd.Process.Kill()
		_ = dlvCmd.Wait()
		return fmt.Errorf("failed to connect to delve server at %s: %w", listen, err)
	}

	dumpErr := writeDelveReport(client, out, depth)

	// Detaching resumes the target, which then re-raises its fault.
	if err := client.Detach(false); err != nil {
		logger.Warn().Err(err).Msg("Failed to detach delve")
		_ = dlvCmd.Process.Kill()
	}
	if err := dlvCmd.Wait(); err != nil && dumpErr == nil {
		logger.Debug().Err(err).Msg("Delve exited")
	}
	return dumpErr
}

// dialDelve connects to the headless server, retrying while it starts up.
// rpc2.NewClient is avoided because it exits the process on failure.
func dialDelve(ctx context.Context, addr string) (*rpc2.RPCClient, error) {
	var d net.Dialer
	var lastErr error
	for i := 0; i < dialAttempts; i++ {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return rpc2.NewClientFromConn(conn), nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialInterval):
		}
	}
	return nil, lastErr
}

// delveClient is the part of the rpc2 client the report needs.
type delveClient interface {
	ListGoroutines(start, count int) ([]*api.Goroutine, int, error)
	Stacktrace(goroutineID int64, depth int, opts api.StacktraceOptions, cfg *api.LoadConfig) ([]api.Stackframe, error)
	ListThreads() ([]*api.Thread, error)
	ListThreadRegisters(threadID int, includeFp bool) (api.Registers, error)
}

var _ delveClient = (*rpc2.RPCClient)(nil)

var reportLoadConfig = api.LoadConfig{
	FollowPointers:     false,
	MaxVariableRecurse: 1,
	MaxStringLen:       64,
	MaxArrayValues:     16,
	MaxStructFields:    -1,
}

// writeDelveReport writes every goroutine's stack, then each thread's
// registers. Failures on individual goroutines or threads are noted inline.
func writeDelveReport(c delveClient, out io.Writer, depth int) error {
	goroutines, _, err := c.ListGoroutines(0, 0)
	if err != nil {
		fmt.Fprintf(out, "Failed to list goroutines: %v\n", err)
		return fmt.Errorf("failed to list goroutines: %w", err)
	}

	for _, g := range goroutines {
		fmt.Fprintf(out, "Goroutine %d", g.ID)
		if g.ThreadID != 0 {
			fmt.Fprintf(out, " (thread %d)", g.ThreadID)
		}
		fmt.Fprintln(out, ":")

		frames, err := c.Stacktrace(g.ID, depth, 0, &reportLoadConfig)
		if err != nil {
			fmt.Fprintf(out, "  stacktrace unavailable: %v\n\n", err)
			continue
		}
		for i, f := range frames {
			fmt.Fprintf(out, "  #%-2d 0x%016x in %s\n      at %s:%d\n", i, f.PC, functionName(f.Function), f.File, f.Line)
			for _, v := range f.Locals {
				fmt.Fprintf(out, "        %s = %s\n", v.Name, v.SinglelineString())
			}
		}
		fmt.Fprintln(out)
	}

	threads, err := c.ListThreads()
	if err != nil {
		fmt.Fprintf(out, "Failed to list threads: %v\n", err)
		return nil
	}
	var errs []error
	for _, th := range threads {
		fmt.Fprintf(out, "Thread %d at 0x%x %s:%d\n", th.ID, th.PC, th.File, th.Line)
		regs, err := c.ListThreadRegisters(th.ID, false)
		if err != nil {
			fmt.Fprintf(out, "  registers unavailable: %v\n\n", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintln(out, regs.String())
	}
	if len(errs) == len(threads) && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func functionName(fn *api.Function) string {
	if fn == nil {
		return "???"
	}
	return fn.Name()
}
