//go:build unix

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willibrandon/faultline/pkg/artifact"
)

func newInspectCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Summarise an artifact or print one of its sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := artifact.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			sections, err := artifact.Parse(r)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if section != "" {
				s, ok := artifact.Find(sections, artifact.Kind(section))
				if !ok {
					return fmt.Errorf("no %s section in %s", section, args[0])
				}
				fmt.Fprintln(out, s.Body)
				return nil
			}

			if desc := artifact.SignalDescription(sections); desc != "" {
				fmt.Fprintf(out, "Fault: %s\n", desc)
			}
			for _, s := range sections {
				lines := 0
				if s.Body != "" {
					lines = strings.Count(s.Body, "\n") + 1
				}
				fmt.Fprintf(out, "%-11s %5d lines  %s\n", s.Kind, lines, strings.TrimSpace(s.Title))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&section, "section", "",
		"print the body of one section (header, signal, log, backtrace, goroutines, extended)")
	return cmd
}
