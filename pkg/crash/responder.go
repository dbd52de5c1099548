//go:build unix

package crash

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/dumpinfo"
)

// ResponderConfig configures a Responder.
type ResponderConfig struct {
	Dir           string
	Prefix        string
	RawBacktrace  bool
	GoroutineDump bool
	Compress      bool

	Header   dumpinfo.HeaderWriter
	Log      dumpinfo.LogWriter
	Debugger ExtendedBacktracer
	// AllowAttach runs right before the debugger is started.
	AllowAttach func() error
	Platform    Platform
	Table       *HandlerTable
	// Output receives the message naming the artifact. Defaults to os.Stderr.
	Output io.Writer
}

// Responder handles a fault: it captures the artifact once, then passes the
// fault on.
type Responder struct {
	cfg    ResponderConfig
	logger zerolog.Logger

	state        atomic.Int32
	artifactPath atomic.Pointer[string]
	goroutineBuf []byte
}

// NewResponder creates an idle Responder.
func NewResponder(cfg ResponderConfig, logger zerolog.Logger) *Responder {
	if cfg.Prefix == "" {
		cfg.Prefix = artifact.DefaultPrefix
	}
	if cfg.Platform == nil {
		cfg.Platform = osPlatform{}
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	r := &Responder{cfg: cfg, logger: logger}
	if cfg.GoroutineDump {
		r.goroutineBuf = make([]byte, goroutineBufSize)
	}
	return r
}

// State returns the current state.
func (r *Responder) State() State {
	return State(r.state.Load())
}

// ArtifactPath returns the artifact written by this Responder, if any.
func (r *Responder) ArtifactPath() string {
	if p := r.artifactPath.Load(); p != nil {
		return *p
	}
	return ""
}

func (r *Responder) enter(s State) {
	r.state.Store(int32(s))
}

// Respond handles f. Only the first fault is captured; any fault that
// arrives after it is re-raised with the default disposition at once.
//
// Respond normally does not return: the re-raised signal terminates the
// process. Panic faults raise the signal they were mapped to. It returns when
// a chained handler or an ignore disposition takes the signal.
func (r *Responder) Respond(ctx context.Context, f Fault) {
	if !r.state.CompareAndSwap(int32(Idle), int32(Capturing)) {
		r.reraiseDefault(f)
		return
	}

	a, err := artifact.Create(r.cfg.Dir, r.cfg.Prefix)
	if err != nil {
		fmt.Fprintf(r.cfg.Output, "Failed to create dump file '%s'\n", artifact.Pattern(r.cfg.Dir, r.cfg.Prefix))
		r.logger.Error().Err(err).Msg("Failed to create dump file")
		r.enter(Finalizing)
		r.reraise(f)
		return
	}
	path := a.Path()
	r.artifactPath.Store(&path)

	r.capture(a, f)
	if err := a.Sync(); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to sync dump file")
	}

	r.enter(Delegating)
	if r.cfg.Debugger != nil {
		if r.cfg.AllowAttach != nil {
			if err := r.cfg.AllowAttach(); err != nil {
				r.logger.Warn().Err(err).Msg("Failed to allow debugger attach")
			}
		}
		if err := r.cfg.Debugger.RunExtendedBacktrace(ctx, a.File()); err != nil {
			r.logger.Warn().Err(err).Msg("No extended backtrace")
		}
	} else {
		a.Note(artifact.NoExtendedSection + "- Debugger disabled\n")
	}

	r.enter(Finalizing)
	fmt.Fprintf(r.cfg.Output, "Saved dump file to '%s'\n"+
		"If you create a bugreport regarding this crash, please include this file.\n", path)
	if err := a.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to close dump file")
	}
	r.logger.Error().
		Str("signal", f.Description()).
		Str("artifact", path).
		Int("write_failures", a.Failures()).
		Msg("Crash captured")
	if r.cfg.Compress {
		if packed, err := artifact.Pack(path); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to compress dump file")
		} else {
			r.logger.Info().Str("artifact", packed).Msg("Compressed dump file")
		}
	}

	r.reraise(f)
}

// capture writes the in-process sections. Every step is best-effort.
func (r *Responder) capture(a *artifact.Artifact, f Fault) {
	if r.cfg.Header != nil {
		if err := r.cfg.Header.WriteHeader(a); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to write dump header")
		}
	}

	a.Note(artifact.SignalLabel + f.Description() + "\n")
	if f.ThreadID != 0 {
		a.Notef("Thread: %d\n", f.ThreadID)
	}
	if f.Panic != nil {
		a.Notef("Panic: %v\n", f.Panic)
		if addr, ok := f.Panic.(interface{ Addr() uintptr }); ok {
			a.Notef("Fault address: 0x%x\n", addr.Addr())
		}
	}
	a.Note("\n")

	if r.cfg.Log != nil {
		if err := r.cfg.Log.WriteRecentLog(a); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to write log history")
		}
	}

	if r.cfg.RawBacktrace {
		pcs := f.PCs
		if len(pcs) == 0 {
			pcs = callers(1)
		}
		a.Note(artifact.BacktraceSection)
		writeRawBacktrace(a, pcs)
		a.Note("\n")
	} else {
		a.Note(artifact.NoBacktraceNote)
	}

	if r.goroutineBuf != nil {
		a.Note(artifact.GoroutineSection)
		writeGoroutines(a, r.goroutineBuf)
		a.Note("\n")
	}
}

// reraise passes f on through the disposition recorded for its signal.
func (r *Responder) reraise(f Fault) {
	r.enter(Reraised)
	prev, _ := r.cfg.Table.Lookup(f.Signal)
	switch prev.Disposition {
	case DispositionChained:
		prev.Handler(f.Signal)
	case DispositionIgnore:
		r.cfg.Platform.Ignore(f.Signal)
		r.raise(f.Signal)
	default:
		r.cfg.Platform.Reset(f.Signal)
		r.raise(f.Signal)
	}
}

func (r *Responder) reraiseDefault(f Fault) {
	r.cfg.Platform.Reset(f.Signal)
	r.raise(f.Signal)
}

func (r *Responder) raise(sig syscall.Signal) {
	if err := r.cfg.Platform.Raise(sig); err != nil {
		r.logger.Error().Err(err).Msg("Failed to re-raise signal")
	}
}
