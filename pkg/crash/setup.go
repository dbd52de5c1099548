//go:build unix

package crash

import (
	"context"
	"runtime/debug"

	"github.com/willibrandon/faultline/pkg/debugger"
)

// Setup installs the crash handler. It is called once, early in main, with
// os.Args. Failures are logged and never stop the program; a second call
// returns the handler installed by the first.
//
// When args mark the process as the Delve helper, Setup runs the helper and
// exits.
func Setup(args []string, opts ...Option) *Handler {
	if debugger.IsHelper(args) {
		runHelper(args)
	}
	if h := current.Load(); h != nil {
		return h
	}

	o := newOptions(opts)
	h := newHandler(args, o)
	cfg := h.cfg
	if cfg.Traceback != "" {
		debug.SetTraceback(cfg.Traceback)
	}

	var allowAttach func() error
	if cfg.AllowPtrace && h.backtracer != nil {
		allowAttach = allowPtrace
	}

	registrar := NewRegistrar(o.platform, cfg.HandleIgnored, h.crashLogger)
	h.responder = NewResponder(ResponderConfig{
		Dir:           cfg.Dir,
		Prefix:        cfg.Prefix,
		RawBacktrace:  cfg.RawBacktrace,
		GoroutineDump: cfg.GoroutineDump,
		Compress:      cfg.Compress,
		Header:        h.info,
		Log:           h.history,
		Debugger:      h.backtracer,
		AllowAttach:   allowAttach,
		Platform:      o.platform,
		Table:         registrar.Table(),
		Output:        o.output,
	}, h.crashLogger)

	if !current.CompareAndSwap(nil, h) {
		return current.Load()
	}

	sigs, err := registrar.Install(context.Background(), h.responder.Respond)
	if err != nil {
		h.crashLogger.Error().Err(err).Msg("Failed to install crash handler")
	}
	h.signals = sigs

	h.crashLogger.Debug().
		Str("program", h.tools.Program.String()).
		Str("debugger", h.tools.Debugger.String()).
		Int("signals", len(sigs)).
		Msg("Crash handler ready")
	return h
}
