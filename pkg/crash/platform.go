package crash

import (
	"os"
	"syscall"
)

// Platform is the process-level signal interface the handler is built on.
type Platform interface {
	// Ignored reports whether sig is currently ignored.
	Ignored(sig syscall.Signal) bool
	Notify(c chan<- os.Signal, sigs ...os.Signal)
	// Reset restores the default disposition of sig, in the Go runtime and
	// in the kernel where the platform allows it.
	Reset(sig syscall.Signal)
	Ignore(sig syscall.Signal)
	// Raise sends sig to the calling thread, or to the process where
	// threads cannot be addressed.
	Raise(sig syscall.Signal) error
	Getpid() int
}
