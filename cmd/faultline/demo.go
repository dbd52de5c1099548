//go:build unix

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/willibrandon/faultline/pkg/crash"
)

// survivalGrace is how long demo waits past the debugger timeout for the
// re-raised signal to end the process.
const survivalGrace = 10 * time.Second

var demoFaults = map[string]func(){
	"segv":   func() { _ = unix.Kill(unix.Getpid(), syscall.SIGSEGV) },
	"abort":  func() { _ = unix.Kill(unix.Getpid(), syscall.SIGABRT) },
	"bus":    func() { _ = unix.Kill(unix.Getpid(), syscall.SIGBUS) },
	"nil":    nilDereference,
	"divide": divideByZero,
	"panic":  func() { panic("demo panic") },
}

func newDemoCmd() *cobra.Command {
	names := make([]string, 0, len(demoFaults))
	for name := range demoFaults {
		names = append(names, name)
	}
	sort.Strings(names)

	return &cobra.Command{
		Use:       "demo <fault>",
		Short:     "Install the crash handler and trigger a fault",
		Long:      "Install the crash handler and trigger a fault. Faults: " + strings.Join(names, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			trigger, ok := demoFaults[args[0]]
			if !ok {
				return fmt.Errorf("unknown fault %q (want one of %s)", args[0], strings.Join(names, ", "))
			}
			return runDemo(cmd, args[0], trigger)
		},
	}
}

func runDemo(cmd *cobra.Command, name string, trigger func()) error {
	h := crash.Setup(os.Args, crash.WithConfig(cfg), crash.WithOutput(cmd.OutOrStdout()))
	defer crash.Guard()

	log := h.Logger()
	log.Info().Str("program", h.Tools().Program.String()).Msg("Crash handler installed")
	log.Info().Str("debugger", h.Tools().Debugger.String()).Int("signals", len(h.Signals())).Msg("Debugger resolved")
	log.Warn().Str("fault", name).Msg("Triggering fault")

	trigger()

	// Signal faults are handled on another goroutine which ends the process.
	if cfg.DebuggerTimeout == 0 {
		select {}
	}
	time.Sleep(cfg.DebuggerTimeout + survivalGrace)
	return fmt.Errorf("process survived %s", name)
}

func nilDereference() {
	var p *struct{ n int }
	fmt.Println(p.n)
}

func divideByZero() {
	zero := 0
	fmt.Println(1 / zero)
}
