//go:build unix

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/faultline/pkg/artifact"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artifacts in the configured directory, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := artifact.List(cfg.Dir, cfg.Prefix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(out, "%s  %8d  %s\n", info.ModTime.Format(time.DateTime), info.Size, info.Path)
			}
			if len(infos) == 0 {
				logger.Info().Str("dir", cfg.Dir).Msg("No artifacts found")
			}
			return nil
		},
	}
}
