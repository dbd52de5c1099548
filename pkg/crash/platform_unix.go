//go:build unix

package crash

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

type osPlatform struct{}

func (osPlatform) Ignored(sig syscall.Signal) bool { return signal.Ignored(sig) }

func (osPlatform) Notify(c chan<- os.Signal, sigs ...os.Signal) { signal.Notify(c, sigs...) }

// Reset hands sig back to the runtime, then past it. The runtime keeps its
// own handler for synchronous signals after signal.Reset and would turn a
// re-raised SIGSEGV into a throw with exit status 2.
func (osPlatform) Reset(sig syscall.Signal) {
	signal.Reset(sig)
	_ = setKernelDisposition(sig, sigDFL)
}

func (osPlatform) Ignore(sig syscall.Signal) {
	signal.Ignore(sig)
	_ = setKernelDisposition(sig, sigIGN)
}

func (osPlatform) Raise(sig syscall.Signal) error { return raiseThread(sig) }

func (osPlatform) Getpid() int { return unix.Getpid() }
