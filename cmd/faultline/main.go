//go:build unix

package main

import (
	"fmt"
	"os"

	"github.com/willibrandon/faultline/pkg/crash"
	"github.com/willibrandon/faultline/pkg/debugger"
)

func main() {
	if debugger.IsHelper(os.Args) {
		// Does not return.
		crash.Setup(os.Args)
	}
	if err := Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
