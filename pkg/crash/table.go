//go:build unix

package crash

import (
	"os"
	"sort"
	"sync"
	"syscall"
)

// Disposition is what a signal did before the handler was installed.
type Disposition int

const (
	// DispositionDefault is the runtime's default behaviour.
	DispositionDefault Disposition = iota
	// DispositionIgnore means the signal was ignored.
	DispositionIgnore
	// DispositionChained means a Go handler declared with Chain.
	DispositionChained
)

func (d Disposition) String() string {
	switch d {
	case DispositionIgnore:
		return "ignore"
	case DispositionChained:
		return "chained"
	default:
		return "default"
	}
}

// Previous is a HandlerTable entry.
type Previous struct {
	Disposition Disposition
	Handler     func(os.Signal)
}

// HandlerTable remembers the previous disposition of every handled signal.
// It is filled once by the Registrar and only read afterwards.
type HandlerTable struct {
	entries map[syscall.Signal]Previous
}

func newHandlerTable() *HandlerTable {
	return &HandlerTable{entries: make(map[syscall.Signal]Previous)}
}

// Lookup returns the entry for sig.
func (t *HandlerTable) Lookup(sig syscall.Signal) (Previous, bool) {
	if t == nil {
		return Previous{}, false
	}
	p, ok := t.entries[sig]
	return p, ok
}

// Signals returns the handled signals in ascending order.
func (t *HandlerTable) Signals() []syscall.Signal {
	if t == nil {
		return nil
	}
	out := make([]syscall.Signal, 0, len(t.entries))
	for sig := range t.entries {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	chainMu sync.Mutex
	chained = map[syscall.Signal]func(os.Signal){}
)

// Chain declares fn as the handler sig had before the crash handler. After a
// fault on sig is captured, fn is invoked instead of the default
// disposition. Chain must be called before Setup.
func Chain(sig syscall.Signal, fn func(os.Signal)) {
	chainMu.Lock()
	defer chainMu.Unlock()
	if fn == nil {
		delete(chained, sig)
		return
	}
	chained[sig] = fn
}

func chainedHandler(sig syscall.Signal) func(os.Signal) {
	chainMu.Lock()
	defer chainMu.Unlock()
	return chained[sig]
}
