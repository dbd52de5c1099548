//go:build linux && !mips && !mipsle && !mips64 && !mips64le

package crash

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sigDFL uintptr = 0
	sigIGN uintptr = 1
)

// kernelSigaction is the rt_sigaction argument layout with the handler
// first. Flags, restorer and mask stay zero, which the kernel accepts for
// SIG_DFL and SIG_IGN on every layout that starts with the handler.
type kernelSigaction struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

const sigsetSize = 8

// setKernelDisposition installs handler for sig directly, bypassing the Go
// runtime's own sigaction bookkeeping.
func setKernelDisposition(sig syscall.Signal, handler uintptr) error {
	sa := kernelSigaction{handler: handler}
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGACTION, uintptr(sig),
		uintptr(unsafe.Pointer(&sa)), 0, sigsetSize, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
