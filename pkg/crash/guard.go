//go:build unix

package crash

import (
	"context"
	"runtime"
	"strings"
	"syscall"

	"github.com/willibrandon/faultline/pkg/signals"
)

// Guard captures a panicking goroutine into an artifact, then raises the
// signal the panic maps to. The panic continues only when that signal does not
// end the process. Guard must be deferred directly:
//
//	defer crash.Guard()
//
// Guard does nothing when no panic is in flight or Setup was not called.
func Guard() {
	v := recover()
	if v == nil {
		return
	}
	if h := current.Load(); h != nil {
		h.responder.Respond(context.Background(), panicFault(v, callers(1), gettid()))
	}
	panic(v)
}

// panicFault maps a panic value to the signal the fault would have raised
// had the runtime not turned it into a panic.
func panicFault(v any, pcs []uintptr, tid int) Fault {
	f := Fault{Signal: syscall.SIGABRT, Panic: v, PCs: pcs, ThreadID: tid}
	re, ok := v.(runtime.Error)
	if !ok {
		return f
	}
	msg := re.Error()
	switch {
	case strings.Contains(msg, "invalid memory address"), strings.Contains(msg, "nil pointer dereference"):
		f.Signal, f.Code = syscall.SIGSEGV, signals.SEGV_MAPERR
	case strings.Contains(msg, "unexpected fault address"):
		f.Signal, f.Code = syscall.SIGSEGV, signals.SEGV_ACCERR
	case strings.Contains(msg, "integer divide by zero"):
		f.Signal, f.Code = syscall.SIGFPE, signals.FPE_INTDIV
	}
	return f
}
