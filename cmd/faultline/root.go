//go:build unix

package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/willibrandon/faultline/pkg/config"
	"github.com/willibrandon/faultline/pkg/logging"
)

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "faultline",
	Short: "Crash capture for Go programs",
	Long: `faultline installs a fatal-signal handler that writes a crash artifact
(header, fault description, recent log, backtraces and a debugger transcript)
before letting the process die the way it would have anyway.

The subcommands demonstrate the handler and work with the artifacts it writes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newDemoCmd(),
		newSnapshotCmd(),
		newInspectCmd(),
		newPackCmd(),
		newListCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)
}

func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	cfg = loaded
	logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
