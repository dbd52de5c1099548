//go:build unix

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/config"
	"github.com/willibrandon/faultline/pkg/locator"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check what a crash capture on this machine would contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runDoctor(cmd.Context(), cmd.OutOrStdout())
			return nil
		},
	}
}

func runDoctor(ctx context.Context, out io.Writer) {
	loc := locator.New(nil, logger)

	fmt.Fprintf(out, "Program:        %s\n", loc.Executable(ctx, os.Args[0]))
	if cfg.Debugger == config.DebuggerNone {
		fmt.Fprintln(out, "Debugger:       disabled")
	} else {
		fmt.Fprintf(out, "Debugger:       %s\n", loc.Locate(ctx, cfg.Command()))
	}

	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		fmt.Fprintf(out, "Artifact dir:   %s (not writable: %v)\n", artifact.Pattern(dir, cfg.Prefix), err)
	} else {
		fmt.Fprintf(out, "Artifact dir:   %s\n", artifact.Pattern(dir, cfg.Prefix))
	}

	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CORE, &lim); err != nil {
		fmt.Fprintf(out, "Core limit:     unknown (%v)\n", err)
	} else {
		fmt.Fprintf(out, "Core limit:     %s\n", formatLimit(lim.Cur))
	}

	if v, ok := readProc("/proc/sys/kernel/yama/ptrace_scope"); ok {
		fmt.Fprintf(out, "Ptrace scope:   %s\n", v)
	}
	if v, ok := readProc("/proc/sys/kernel/core_pattern"); ok {
		fmt.Fprintf(out, "Core pattern:   %s\n", v)
	}
}

func formatLimit(v uint64) string {
	if v == ^uint64(0) {
		return "unlimited"
	}
	if v == 0 {
		return "0 (core files disabled)"
	}
	return fmt.Sprintf("%d bytes", v)
}

func readProc(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
