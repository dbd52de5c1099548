//go:build !unix

package crash

import (
	"os"
	"syscall"
)

// Responder never leaves Idle on platforms without POSIX signals.
type Responder struct{}

// State returns Idle.
func (*Responder) State() State { return Idle }

// ArtifactPath returns "".
func (*Responder) ArtifactPath() string { return "" }

// Setup loads the configuration and builds the logger, but installs no
// signal handling on this platform. Platform and output options are
// accepted and unused.
func Setup(args []string, opts ...Option) *Handler {
	if h := current.Load(); h != nil {
		return h
	}
	h := newHandler(args, newOptions(opts))
	h.responder = &Responder{}
	if !current.CompareAndSwap(nil, h) {
		return current.Load()
	}
	h.crashLogger.Debug().Msg("Crash capture is not supported on this platform")
	return h
}

// Chain does nothing on this platform.
func Chain(syscall.Signal, func(os.Signal)) {}

// Guard lets a panic continue unchanged on this platform.
func Guard() {
	if v := recover(); v != nil {
		panic(v)
	}
}
