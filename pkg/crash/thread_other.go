//go:build unix && !linux

package crash

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func gettid() int {
	return 0
}

func raiseThread(sig syscall.Signal) error {
	return unix.Kill(unix.Getpid(), sig)
}
