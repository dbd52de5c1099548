//go:build unix

package crash

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/debugger"
	"github.com/willibrandon/faultline/pkg/dumpinfo"
	"github.com/willibrandon/faultline/pkg/signals"
)

type fakePlatform struct {
	mu      sync.Mutex
	ignored map[syscall.Signal]bool
	ch      chan<- os.Signal
	sigs    []os.Signal
	resets  []syscall.Signal
	ignores []syscall.Signal
	raises  []syscall.Signal
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{ignored: map[syscall.Signal]bool{}}
}

func (p *fakePlatform) Ignored(sig syscall.Signal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ignored[sig]
}

func (p *fakePlatform) Notify(c chan<- os.Signal, sigs ...os.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ch, p.sigs = c, sigs
}

func (p *fakePlatform) Reset(sig syscall.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, sig)
}

func (p *fakePlatform) Ignore(sig syscall.Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ignores = append(p.ignores, sig)
}

func (p *fakePlatform) Raise(sig syscall.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raises = append(p.raises, sig)
	return nil
}

func (p *fakePlatform) Getpid() int { return os.Getpid() }

func (p *fakePlatform) raised() []syscall.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]syscall.Signal(nil), p.raises...)
}

// spyDebugger stands in for the orchestrator.
type spyDebugger struct {
	calls  int
	during func()
}

func (s *spyDebugger) RunExtendedBacktrace(_ context.Context, out *os.File) error {
	s.calls++
	_, _ = out.WriteString(artifact.GDBSection + "#0 0x0000 in main.crash ()\n")
	if s.during != nil {
		s.during()
	}
	return nil
}

type fixture struct {
	dir       string
	platform  *fakePlatform
	debugger  *spyDebugger
	output    *bytes.Buffer
	history   *dumpinfo.History
	registrar *Registrar
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := newFakePlatform()
	return &fixture{
		dir:       t.TempDir(),
		platform:  p,
		debugger:  &spyDebugger{},
		output:    &bytes.Buffer{},
		history:   dumpinfo.NewHistory(16),
		registrar: NewRegistrar(p, false, zerolog.Nop()),
	}
}

func (f *fixture) responder(mutate ...func(*ResponderConfig)) *Responder {
	cfg := ResponderConfig{
		Dir:           f.dir,
		Prefix:        artifact.DefaultPrefix,
		RawBacktrace:  true,
		GoroutineDump: true,
		Header:        dumpinfo.Capture([]string{"crash.test"}),
		Log:           f.history,
		Debugger:      f.debugger,
		Platform:      f.platform,
		Table:         f.registrar.Table(),
		Output:        f.output,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewResponder(cfg, zerolog.Nop())
}

func (f *fixture) artifacts(t *testing.T) []artifact.Info {
	t.Helper()
	infos, err := artifact.List(f.dir, artifact.DefaultPrefix)
	require.NoError(t, err)
	return infos
}

func readSections(t *testing.T, path string) []artifact.Section {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	sections, err := artifact.Parse(fh)
	require.NoError(t, err)
	return sections
}

func TestRespondSegfault(t *testing.T) {
	f := newFixture(t)
	_, err := f.registrar.Install(context.Background(), func(context.Context, Fault) {})
	require.NoError(t, err)
	_, _ = f.history.Write([]byte("12:00:00 INF loading level\n"))
	r := f.responder()

	r.Respond(context.Background(), Fault{Signal: syscall.SIGSEGV, Code: signals.SEGV_MAPERR, ThreadID: 7})

	assert.Equal(t, Reraised, r.State())
	infos := f.artifacts(t)
	require.Len(t, infos, 1)
	assert.Equal(t, infos[0].Path, r.ArtifactPath())

	data, err := os.ReadFile(r.ArtifactPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "SIGSEGV: Invalid memory reference: Address not mapped to object")
	assert.Contains(t, string(data), "Thread: 7\n")

	sections := readSections(t, r.ArtifactPath())
	kinds := make([]artifact.Kind, 0, len(sections))
	for _, s := range sections {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []artifact.Kind{
		artifact.KindHeader,
		artifact.KindSignal,
		artifact.KindLog,
		artifact.KindBacktrace,
		artifact.KindGoroutines,
		artifact.KindExtended,
	}, kinds)
	logs, _ := artifact.Find(sections, artifact.KindLog)
	assert.Contains(t, logs.Body, "loading level")

	assert.Equal(t, 1, f.debugger.calls)
	assert.Contains(t, f.output.String(), "Saved dump file to '"+r.ArtifactPath()+"'")
	assert.Equal(t, []syscall.Signal{syscall.SIGSEGV}, f.platform.resets)
	assert.Equal(t, []syscall.Signal{syscall.SIGSEGV}, f.platform.raised())
}

func TestRespondWithoutDebugger(t *testing.T) {
	f := newFixture(t)
	orch := debugger.New(debugger.Config{Backend: debugger.GDB{}}, zerolog.Nop())
	r := f.responder(func(c *ResponderConfig) { c.Debugger = orch })

	r.Respond(context.Background(), Fault{Signal: syscall.SIGABRT})

	data, err := os.ReadFile(r.ArtifactPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), artifact.NoExtendedSection)
	assert.Contains(t, string(data), "- Program path not available\n")
	assert.Contains(t, string(data), "- GDB not available\n")
	assert.NotContains(t, string(data), artifact.GDBSection)
	assert.Equal(t, []syscall.Signal{syscall.SIGABRT}, f.platform.raised())
}

func TestRespondDebuggerDisabled(t *testing.T) {
	f := newFixture(t)
	r := f.responder(func(c *ResponderConfig) {
		c.Debugger = nil
		c.RawBacktrace = false
		c.GoroutineDump = false
	})

	r.Respond(context.Background(), Fault{Signal: syscall.SIGILL})

	data, err := os.ReadFile(r.ArtifactPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), artifact.NoBacktraceNote)
	assert.NotContains(t, string(data), artifact.GoroutineSection)
	assert.Contains(t, string(data), "- Debugger disabled\n")
}

func TestRespondUnwritableDir(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.dir, "missing")
	r := f.responder(func(c *ResponderConfig) { c.Dir = missing })

	r.Respond(context.Background(), Fault{Signal: syscall.SIGSEGV, Code: signals.SEGV_MAPERR})

	assert.Equal(t, Reraised, r.State())
	assert.Contains(t, f.output.String(), "Failed to create dump file '"+artifact.Pattern(missing, artifact.DefaultPrefix)+"'")
	assert.NotContains(t, f.output.String(), "Saved dump file")
	assert.Empty(t, r.ArtifactPath())
	assert.Zero(t, f.debugger.calls)
	assert.Empty(t, f.artifacts(t))
	assert.Equal(t, []syscall.Signal{syscall.SIGSEGV}, f.platform.raised())
}

func TestRespondReentrant(t *testing.T) {
	f := newFixture(t)
	r := f.responder()
	var stateDuring State
	f.debugger.during = func() {
		stateDuring = r.State()
		r.Respond(context.Background(), Fault{Signal: syscall.SIGBUS})
	}

	r.Respond(context.Background(), Fault{Signal: syscall.SIGSEGV})

	assert.Equal(t, Delegating, stateDuring)
	assert.Equal(t, 1, f.debugger.calls)
	assert.Len(t, f.artifacts(t), 1)
	assert.Equal(t, []syscall.Signal{syscall.SIGBUS, syscall.SIGSEGV}, f.platform.raised())
	assert.Equal(t, []syscall.Signal{syscall.SIGBUS, syscall.SIGSEGV}, f.platform.resets)
}

func TestRespondAfterReraise(t *testing.T) {
	f := newFixture(t)
	r := f.responder()
	r.Respond(context.Background(), Fault{Signal: syscall.SIGSEGV})
	r.Respond(context.Background(), Fault{Signal: syscall.SIGABRT})

	assert.Len(t, f.artifacts(t), 1)
	assert.Equal(t, 1, f.debugger.calls)
}

func TestRespondChainsPreviousHandler(t *testing.T) {
	f := newFixture(t)
	calls := 0
	var seen []artifact.Info
	Chain(syscall.SIGFPE, func(os.Signal) {
		calls++
		seen = f.artifacts(t)
	})
	t.Cleanup(func() { Chain(syscall.SIGFPE, nil) })

	_, err := f.registrar.Install(context.Background(), func(context.Context, Fault) {})
	require.NoError(t, err)
	prev, ok := f.registrar.Table().Lookup(syscall.SIGFPE)
	require.True(t, ok)
	assert.Equal(t, DispositionChained, prev.Disposition)

	r := f.responder()
	r.Respond(context.Background(), Fault{Signal: syscall.SIGFPE, Code: signals.FPE_INTDIV})

	assert.Equal(t, 1, calls)
	require.Len(t, seen, 1, "artifact exists when the chained handler runs")
	assert.Empty(t, f.platform.raised())
}

func TestRespondPanicRaisesMappedSignal(t *testing.T) {
	f := newFixture(t)
	r := f.responder()
	r.Respond(context.Background(), panicFault("boom", callers(0), 0))

	data, err := os.ReadFile(r.ArtifactPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "SIGABRT: Process abort signal\nPanic: boom\n")
	assert.Contains(t, string(data), "TestRespondPanicRaisesMappedSignal")
	assert.Equal(t, []syscall.Signal{syscall.SIGABRT}, f.platform.resets)
	assert.Equal(t, []syscall.Signal{syscall.SIGABRT}, f.platform.raised())
}

func TestRespondAllowsAttachBeforeDebugger(t *testing.T) {
	f := newFixture(t)
	var order []string
	f.debugger.during = func() { order = append(order, "debugger") }
	r := f.responder(func(c *ResponderConfig) {
		c.AllowAttach = func() error {
			order = append(order, "allow")
			return errors.New("operation not permitted")
		}
	})

	r.Respond(context.Background(), Fault{Signal: syscall.SIGSEGV})

	assert.Equal(t, []string{"allow", "debugger"}, order)
	assert.Equal(t, Reraised, r.State(), "a failed allowance does not stop the capture")
}

func TestRespondSkipsAttachWithoutDebugger(t *testing.T) {
	f := newFixture(t)
	calls := 0
	r := f.responder(func(c *ResponderConfig) {
		c.Debugger = nil
		c.AllowAttach = func() error { calls++; return nil }
	})

	r.Respond(context.Background(), Fault{Signal: syscall.SIGSEGV})

	assert.Zero(t, calls)
}

func TestRespondCompress(t *testing.T) {
	f := newFixture(t)
	r := f.responder(func(c *ResponderConfig) { c.Compress = true })
	r.Respond(context.Background(), Fault{Signal: syscall.SIGABRT})

	_, err := os.Stat(r.ArtifactPath() + artifact.PackedExt)
	assert.NoError(t, err)
}

func TestInstallSkipsIgnored(t *testing.T) {
	f := newFixture(t)
	f.platform.ignored[syscall.SIGQUIT] = true

	sigs, err := f.registrar.Install(context.Background(), func(context.Context, Fault) {})
	require.NoError(t, err)
	assert.NotContains(t, sigs, syscall.SIGQUIT)
	assert.Len(t, sigs, len(signals.Fatal)-1)
	assert.NotContains(t, f.platform.sigs, os.Signal(syscall.SIGQUIT))
	_, ok := f.registrar.Table().Lookup(syscall.SIGQUIT)
	assert.False(t, ok)
}

func TestInstallHandleIgnored(t *testing.T) {
	p := newFakePlatform()
	p.ignored[syscall.SIGQUIT] = true
	reg := NewRegistrar(p, true, zerolog.Nop())

	sigs, err := reg.Install(context.Background(), func(context.Context, Fault) {})
	require.NoError(t, err)
	assert.Contains(t, sigs, syscall.SIGQUIT)
	prev, ok := reg.Table().Lookup(syscall.SIGQUIT)
	require.True(t, ok)
	assert.Equal(t, DispositionIgnore, prev.Disposition)

	f := newFixture(t)
	f.platform = p
	f.registrar = reg
	r := f.responder()
	r.Respond(context.Background(), Fault{Signal: syscall.SIGQUIT})
	assert.Equal(t, []syscall.Signal{syscall.SIGQUIT}, p.ignores)
	assert.Empty(t, p.resets)
}

func TestInstallTwice(t *testing.T) {
	f := newFixture(t)
	_, err := f.registrar.Install(context.Background(), func(context.Context, Fault) {})
	require.NoError(t, err)
	_, err = f.registrar.Install(context.Background(), func(context.Context, Fault) {})
	assert.ErrorIs(t, err, ErrAlreadyInstalled)
}

func TestInstallDispatchesSignals(t *testing.T) {
	f := newFixture(t)
	faults := make(chan Fault, 1)
	_, err := f.registrar.Install(context.Background(), func(_ context.Context, fault Fault) {
		faults <- fault
	})
	require.NoError(t, err)

	f.platform.ch <- syscall.SIGSEGV
	select {
	case fault := <-faults:
		assert.Equal(t, syscall.SIGSEGV, fault.Signal)
		assert.Equal(t, 0, fault.Code)
		assert.Zero(t, fault.ThreadID, "the dispatching thread is not the faulting one")
	case <-time.After(5 * time.Second):
		t.Fatal("fault not dispatched")
	}
}

func TestPanicFault(t *testing.T) {
	nilDeref := func() (err error) {
		defer func() { err = recover().(error) }()
		var p *int
		_ = *p
		return nil
	}
	divide := func() (err error) {
		defer func() { err = recover().(error) }()
		zero := 0
		_ = 1 / zero
		return nil
	}

	f := panicFault(nilDeref(), nil, 0)
	assert.Equal(t, syscall.SIGSEGV, f.Signal)
	assert.Equal(t, signals.SEGV_MAPERR, f.Code)
	assert.Equal(t, "SIGSEGV: Invalid memory reference: Address not mapped to object", f.Description())

	f = panicFault(divide(), nil, 0)
	assert.Equal(t, syscall.SIGFPE, f.Signal)
	assert.Equal(t, signals.FPE_INTDIV, f.Code)

	f = panicFault("custom", nil, 0)
	assert.Equal(t, syscall.SIGABRT, f.Signal)
	assert.Equal(t, 0, f.Code)
}

func TestGuard(t *testing.T) {
	f := newFixture(t)
	h := &Handler{responder: f.responder()}
	require.True(t, current.CompareAndSwap(nil, h))
	t.Cleanup(func() { current.Store(nil) })

	crashing := func() {
		defer Guard()
		var m map[string]*int
		_ = *m["missing"]
	}
	assert.Panics(t, crashing)

	path := h.responder.ArtifactPath()
	require.NotEmpty(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SIGSEGV: Invalid memory reference: Address not mapped to object")
	assert.Contains(t, string(data), "Panic: runtime error: invalid memory address or nil pointer dereference")
	assert.Equal(t, []syscall.Signal{syscall.SIGSEGV}, f.platform.raised())
}

func TestGuardWithoutPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer Guard()
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "reraised", Reraised.String())
	assert.Equal(t, "chained", DispositionChained.String())
}
