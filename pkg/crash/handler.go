package crash

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/willibrandon/faultline/pkg/config"
	"github.com/willibrandon/faultline/pkg/debugger"
	"github.com/willibrandon/faultline/pkg/dumpinfo"
	"github.com/willibrandon/faultline/pkg/locator"
	"github.com/willibrandon/faultline/pkg/logging"
)

var current atomic.Pointer[Handler]

// ExtendedBacktracer writes an extended backtrace of the process into out.
// *debugger.Orchestrator implements it.
type ExtendedBacktracer interface {
	RunExtendedBacktrace(ctx context.Context, out *os.File) error
}

// Handler is the installed crash handler.
type Handler struct {
	cfg         *config.Config
	logger      zerolog.Logger
	crashLogger zerolog.Logger
	history     *dumpinfo.History
	info        *dumpinfo.Info
	tools       debugger.Tools
	backtracer  ExtendedBacktracer
	responder   *Responder
	signals     []syscall.Signal
}

// newHandler loads the configuration, builds the loggers and resolves the
// tools. Nothing is installed yet.
func newHandler(args []string, o *options) *Handler {
	cfg := o.cfg
	var cfgErr error
	if cfg == nil {
		if cfg, cfgErr = config.Load(""); cfgErr != nil {
			cfg = config.Default()
		}
	}

	history := dumpinfo.NewHistory(cfg.LogHistory)
	var logger zerolog.Logger
	if o.logger != nil {
		logger = *o.logger
	} else {
		logger = logging.New(logging.Config{
			Level:   cfg.Log.Level,
			Pretty:  cfg.Log.Pretty,
			Output:  os.Stderr,
			History: history,
		})
	}
	crashLogger := logger.With().Str("component", "crash").Logger()
	if cfgErr != nil {
		crashLogger.Warn().Err(cfgErr).Msg("Invalid configuration, using defaults")
	}

	ctx := context.Background()
	argv0 := ""
	if len(args) > 0 {
		argv0 = args[0]
	}
	loc := locator.New(o.resolver, logger)
	h := &Handler{
		cfg:         cfg,
		logger:      logger,
		crashLogger: crashLogger,
		history:     history,
		info:        dumpinfo.Capture(args),
		tools:       debugger.Tools{Program: loc.Executable(ctx, argv0)},
	}
	if cfg.Debugger != config.DebuggerNone {
		h.tools.Debugger = loc.Locate(ctx, cfg.Command())
		h.backtracer = debugger.New(debugger.Config{
			Tools:   h.tools,
			Backend: backend(cfg),
			Timeout: cfg.DebuggerTimeout,
		}, logger)
	}
	return h
}

func backend(cfg *config.Config) debugger.Backend {
	if cfg.Debugger == config.DebuggerDelve {
		return debugger.Delve{}
	}
	return debugger.GDB{Frame: cfg.HandlerFrame}
}

// Current returns the handler installed by Setup, or nil.
func Current() *Handler {
	return current.Load()
}

// Logger returns the logger whose output ends up in the artifact.
func (h *Handler) Logger() zerolog.Logger { return h.logger }

// Config returns the effective configuration.
func (h *Handler) Config() *config.Config { return h.cfg }

// Tools returns the resolved program and debugger locations.
func (h *Handler) Tools() debugger.Tools { return h.tools }

// Signals returns the signals being handled.
func (h *Handler) Signals() []syscall.Signal { return h.signals }

// Responder returns the responder handling faults.
func (h *Handler) Responder() *Responder { return h.responder }

// History returns the recent log ring.
func (h *Handler) History() *dumpinfo.History { return h.history }
