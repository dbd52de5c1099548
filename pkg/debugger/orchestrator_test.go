package debugger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/locator"
)

// shellBackend runs a shell snippet in place of a debugger. The snippet sees
// the pid as $1.
type shellBackend struct {
	snippet string
	script  string
}

func (shellBackend) Name() string    { return "Spy" }
func (shellBackend) Section() string { return "Spy transcript:\n" }
func (b shellBackend) Command(tools Tools, pid int) (string, []string) {
	return tools.Debugger.Path, []string{"-c", b.snippet, "sh", strconv.Itoa(pid)}
}
func (b shellBackend) Script() []byte { return []byte(b.script) }

func shellTools(t *testing.T) Tools {
	t.Helper()
	sh, err := locator.LookPathResolver(context.Background(), "sh")
	if err != nil {
		t.Skip("sh not installed")
	}
	return Tools{
		Program:  locator.ToolLocation{Name: "program", Path: os.Args[0], Available: true},
		Debugger: locator.ToolLocation{Name: "sh", Path: sh, Available: true},
	}
}

func newOutput(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func contents(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(data)
}

func TestRunExtendedBacktrace_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		tools Tools
		want  []string
	}{
		{
			name:  "nothing resolved",
			tools: Tools{},
			want:  []string{"- Program path not available\n", "- GDB not available\n"},
		},
		{
			name:  "debugger missing",
			tools: Tools{Program: locator.ToolLocation{Path: "/bin/app", Available: true}},
			want:  []string{"- GDB not available\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newOutput(t)
			o := New(Config{Tools: tt.tools, Backend: GDB{}}, zerolog.Nop())

			err := o.RunExtendedBacktrace(context.Background(), out)
			assert.ErrorIs(t, err, ErrUnavailable)

			got := contents(t, out)
			assert.True(t, len(got) > 0)
			assert.Contains(t, got, artifact.NoExtendedSection)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			assert.NotContains(t, got, artifact.GDBSection)
		})
	}
}

func TestRunExtendedBacktrace_Success(t *testing.T) {
	t.Setenv("FAULTLINE_LEAK", "visible")
	out := newOutput(t)
	o := New(Config{
		Tools: shellTools(t),
		Backend: shellBackend{
			snippet: `echo "pid=$1"; echo "leak=[$FAULTLINE_LEAK]"; cat`,
			script:  "backtrace full\nquit\n",
		},
	}, zerolog.Nop())

	require.NoError(t, o.RunExtendedBacktrace(context.Background(), out))

	got := contents(t, out)
	assert.Contains(t, got, "Spy transcript:\npid="+strconv.Itoa(os.Getpid())+"\n")
	assert.Contains(t, got, "leak=[]", "the debugger gets an empty environment")
	assert.Contains(t, got, "backtrace full\nquit\n", "the script arrives on stdin")
}

func TestRunExtendedBacktrace_NonZeroExit(t *testing.T) {
	out := newOutput(t)
	o := New(Config{
		Tools:   shellTools(t),
		Backend: shellBackend{snippet: "exit 3"},
	}, zerolog.Nop())

	err := o.RunExtendedBacktrace(context.Background(), out)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Status)
	assert.Nil(t, exitErr.Signal)
	assert.Contains(t, contents(t, out), "Spy failed\n")
}

func TestRunExtendedBacktrace_KilledBySignal(t *testing.T) {
	out := newOutput(t)
	o := New(Config{
		Tools:   shellTools(t),
		Backend: shellBackend{snippet: "kill -9 $$"},
	}, zerolog.Nop())

	err := o.RunExtendedBacktrace(context.Background(), out)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.NotNil(t, exitErr.Signal)
	assert.Contains(t, exitErr.Error(), "signal")
}

func TestRunExtendedBacktrace_Timeout(t *testing.T) {
	out := newOutput(t)
	o := New(Config{
		Tools:   shellTools(t),
		Backend: shellBackend{snippet: "sleep 30"},
		Timeout: 200 * time.Millisecond,
	}, zerolog.Nop())

	start := time.Now()
	err := o.RunExtendedBacktrace(context.Background(), out)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Contains(t, contents(t, out), "Spy timed out")
}

func TestRunExtendedBacktrace_StartFailure(t *testing.T) {
	out := newOutput(t)
	tools := shellTools(t)
	tools.Debugger.Path = filepath.Join(t.TempDir(), "missing-debugger")
	o := New(Config{Tools: tools, Backend: shellBackend{}}, zerolog.Nop())

	err := o.RunExtendedBacktrace(context.Background(), out)
	require.Error(t, err)
	assert.Contains(t, contents(t, out), `execve("Spy") failed`)
}

func TestGDB(t *testing.T) {
	tools := Tools{
		Program:  locator.ToolLocation{Path: "/opt/app"},
		Debugger: locator.ToolLocation{Path: "/usr/bin/gdb"},
	}
	path, args := GDB{}.Command(tools, 1234)
	assert.Equal(t, "/usr/bin/gdb", path)
	assert.Equal(t, []string{"/opt/app", "1234"}, args)

	assert.Equal(t, "backtrace full\nframe 4\ndisassemble\ninfo registers\nquit\n", string(GDB{}.Script()))
	assert.Equal(t, "backtrace full\nframe 2\ndisassemble\ninfo registers\nquit\n", string(GDB{Frame: 2}.Script()))
	assert.Equal(t, artifact.GDBSection, GDB{}.Section())
}

func TestNewDefaults(t *testing.T) {
	o := New(Config{}, zerolog.Nop())
	assert.Equal(t, os.Getpid(), o.cfg.PID)
	assert.IsType(t, GDB{}, o.cfg.Backend)
}
