package crash

import (
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

func gettid() int {
	return unix.Gettid()
}

// raiseThread delivers sig to the calling thread, so a synchronous signal
// with the default disposition kills the process the way the fault would
// have.
func raiseThread(sig syscall.Signal) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	return unix.Tgkill(unix.Getpid(), unix.Gettid(), sig)
}
