//go:build unix

package crash

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/willibrandon/faultline/pkg/signals"
)

// ErrAlreadyInstalled is returned by a second Install.
var ErrAlreadyInstalled = errors.New("crash handler already installed")

// Registrar installs the fault handler for the fatal signals.
type Registrar struct {
	platform      Platform
	handleIgnored bool
	logger        zerolog.Logger

	table     *HandlerTable
	installed atomic.Bool
}

// NewRegistrar creates a Registrar. Signals the process already ignores are
// left alone unless handleIgnored is set.
func NewRegistrar(platform Platform, handleIgnored bool, logger zerolog.Logger) *Registrar {
	if platform == nil {
		platform = osPlatform{}
	}
	return &Registrar{
		platform:      platform,
		handleIgnored: handleIgnored,
		logger:        logger,
		table:         newHandlerTable(),
	}
}

// Table returns the table Install fills.
func (r *Registrar) Table() *HandlerTable {
	return r.table
}

// Install records the previous disposition of every fatal signal and starts
// delivering them to handle, each on its own goroutine so that a fault
// arriving during capture reaches the reentrancy guard. It returns the
// signals that are now handled.
func (r *Registrar) Install(ctx context.Context, handle func(context.Context, Fault)) ([]syscall.Signal, error) {
	if !r.installed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}

	var sigs []os.Signal
	for _, sig := range signals.Fatal {
		prev := Previous{Disposition: DispositionDefault}
		if r.platform.Ignored(sig) {
			if !r.handleIgnored {
				r.logger.Warn().Str("signal", signals.Name(sig)).Msg("Signal is ignored, not handling it")
				continue
			}
			prev.Disposition = DispositionIgnore
		} else if fn := chainedHandler(sig); fn != nil {
			prev = Previous{Disposition: DispositionChained, Handler: fn}
		}
		r.table.entries[sig] = prev
		sigs = append(sigs, sig)
	}
	if len(sigs) == 0 {
		return nil, nil
	}

	ch := make(chan os.Signal, len(sigs))
	r.platform.Notify(ch, sigs...)
	go r.dispatch(ctx, ch, handle)

	installed := r.table.Signals()
	r.logger.Debug().Int("signals", len(installed)).Msg("Installed crash handler")
	return installed, nil
}

func (r *Registrar) dispatch(ctx context.Context, ch <-chan os.Signal, handle func(context.Context, Fault)) {
	for s := range ch {
		sig, ok := s.(syscall.Signal)
		if !ok {
			continue
		}
		// The faulting thread is unknown once os/signal has relayed the
		// delivery.
		go handle(ctx, Fault{Signal: sig})
	}
}
