//go:build unix

package crash

import (
	"context"
	"os"

	"github.com/willibrandon/faultline/pkg/debugger"
	"github.com/willibrandon/faultline/pkg/logging"
)

// runHelper runs the Delve helper. Its standard output is the artifact.
func runHelper(args []string) {
	logger := logging.NewWithComponent(logging.Config{Level: "warn", Output: os.Stderr}, "delve-helper")
	if err := debugger.RunDelveHelper(context.Background(), args, os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("Delve helper failed")
		os.Stdout.WriteString("Delve helper failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(0)
}
