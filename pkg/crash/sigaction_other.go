//go:build unix && !(linux && !mips && !mipsle && !mips64 && !mips64le)

package crash

import "syscall"

const (
	sigDFL uintptr = 0
	sigIGN uintptr = 1
)

// setKernelDisposition is not available here; signal.Reset and
// signal.Ignore are all the platform gets.
func setKernelDisposition(syscall.Signal, uintptr) error {
	return nil
}
