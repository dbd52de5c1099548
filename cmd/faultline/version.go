//go:build unix

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willibrandon/faultline/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
			return nil
		},
	}
}
