//go:build unix

package crash

import (
	"syscall"

	"github.com/willibrandon/faultline/pkg/signals"
)

// Fault describes one fault delivery.
type Fault struct {
	Signal syscall.Signal
	// Code is the si_code of the delivery. Deliveries through os/signal
	// carry none and use 0 (SI_USER), which selects the coarse description.
	Code int
	// ThreadID is the faulting thread, or 0 when it is not known.
	ThreadID int
	// Context is the raw register context when the source provides one.
	Context []byte

	// Panic is the recovered value when the fault surfaced as a panic.
	Panic any
	// PCs is the stack of the faulting goroutine, when it was captured at
	// the fault site.
	PCs []uintptr
}

// Description returns the human-readable fault category.
func (f Fault) Description() string {
	return signals.Describe(f.Signal, f.Code)
}
