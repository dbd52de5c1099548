//go:build unix

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/config"
	"github.com/willibrandon/faultline/pkg/debugger"
	"github.com/willibrandon/faultline/pkg/locator"
)

func newSnapshotCmd() *cobra.Command {
	var pid int32
	cmd := &cobra.Command{
		Use:   "snapshot --pid <pid>",
		Short: "Write an extended backtrace of a running process",
		Long: `Attach the configured debugger to a running process and write its
transcript to a new artifact. The process resumes afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd.Context(), cmd, pid)
		},
	}
	cmd.Flags().Int32Var(&pid, "pid", 0, "process to attach to")
	_ = cmd.MarkFlagRequired("pid")
	return cmd
}

func runSnapshot(ctx context.Context, cmd *cobra.Command, pid int32) error {
	if cfg.Debugger == config.DebuggerNone {
		return errors.New("no debugger configured")
	}

	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("process %d: %w", pid, err)
	}
	exe, err := proc.ExeWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve executable of process %d: %w", pid, err)
	}
	name, _ := proc.NameWithContext(ctx)

	loc := locator.New(nil, logger)
	tools := debugger.Tools{
		Program:  locator.ToolLocation{Name: "program", Path: exe, Available: true},
		Debugger: loc.Locate(ctx, cfg.Command()),
	}

	var backend debugger.Backend = debugger.GDB{Frame: cfg.HandlerFrame}
	if cfg.Debugger == config.DebuggerDelve {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to resolve faultline executable: %w", err)
		}
		backend = debugger.Delve{Helper: self}
	}

	a, err := artifact.Create(cfg.Dir, cfg.Prefix)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Notef("%s%s(%s)\nPID: %d\nSnapshot requested by: faultline\n\n", artifact.HeaderLabel, exe, name, pid)

	orch := debugger.New(debugger.Config{
		Tools:   tools,
		Backend: backend,
		PID:     int(pid),
		Timeout: cfg.DebuggerTimeout,
	}, logger)
	runErr := orch.RunExtendedBacktrace(ctx, a.File())

	if err := a.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot to '%s'\n", a.Path())
	return runErr
}
