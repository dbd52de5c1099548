//go:build unix

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/willibrandon/faultline/pkg/artifact"
)

func newPackCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "pack <artifact>...",
		Short: "Compress artifacts with zstd",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if artifact.IsPacked(path) {
					logger.Info().Str("artifact", path).Msg("Already packed")
					continue
				}
				packed, err := artifact.Pack(path)
				if err != nil {
					return err
				}
				if remove {
					if err := os.Remove(path); err != nil {
						return fmt.Errorf("failed to remove %s: %w", path, err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), packed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the uncompressed artifact")
	return cmd
}
