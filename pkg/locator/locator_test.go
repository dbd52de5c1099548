package locator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(path string, err error) Resolver {
	return func(context.Context, string) (string, error) { return path, err }
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name      string
		resolver  Resolver
		available bool
		path      string
	}{
		{"absolute", fixed("/usr/bin/gdb", nil), true, "/usr/bin/gdb"},
		{"not found", fixed("", ErrNotFound), false, ""},
		{"empty result", fixed("", nil), false, ""},
		{"overflow", fixed("/"+strings.Repeat("a", 5000), nil), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := New(tt.resolver, zerolog.Nop()).Locate(context.Background(), "gdb")
			assert.Equal(t, tt.available, loc.Available)
			assert.Equal(t, tt.path, loc.Path)
			assert.Equal(t, "gdb", loc.Name)
		})
	}
}

func TestLocateRelativeIsMadeAbsolute(t *testing.T) {
	loc := New(fixed("bin/gdb", nil), zerolog.Nop()).Locate(context.Background(), "gdb")
	require.True(t, loc.Available)
	assert.True(t, filepath.IsAbs(loc.Path))
}

func TestLocateEmptyName(t *testing.T) {
	called := false
	l := New(func(context.Context, string) (string, error) {
		called = true
		return "/x", nil
	}, zerolog.Nop())
	assert.False(t, l.Locate(context.Background(), "").Available)
	assert.False(t, called)
}

func TestLocateLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	l := New(fixed("", ErrNotFound), zerolog.New(&buf))
	l.Locate(context.Background(), "gdb")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"command":"gdb"`)
}

func TestReadBounded(t *testing.T) {
	out, err := readBounded(strings.NewReader("/usr/bin/gdb\n"))
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/gdb", out)

	_, err = readBounded(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = readBounded(strings.NewReader(strings.Repeat("x", 5000)))
	assert.ErrorIs(t, err, ErrPathTooLong)

	out, err = readBounded(strings.NewReader(strings.Repeat("y", MaxPath)))
	require.NoError(t, err)
	assert.Len(t, out, MaxPath)
}

func TestWhichResolver(t *testing.T) {
	if _, err := exec.LookPath("which"); err != nil {
		t.Skip("which not installed")
	}
	path, err := WhichResolver(context.Background(), "sh")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	_, err = WhichResolver(context.Background(), "faultline-no-such-command")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookPathResolver(t *testing.T) {
	_, err := LookPathResolver(context.Background(), "faultline-no-such-command")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecutable(t *testing.T) {
	loc := New(fixed("", ErrNotFound), zerolog.Nop()).Executable(context.Background(), os.Args[0])
	require.True(t, loc.Available)
	assert.True(t, filepath.IsAbs(loc.Path))
	assert.Equal(t, "program", loc.Name)
}

func TestToolLocationString(t *testing.T) {
	assert.Equal(t, "gdb: /usr/bin/gdb", ToolLocation{Name: "gdb", Path: "/usr/bin/gdb", Available: true}.String())
	assert.Equal(t, "gdb: not available", ToolLocation{Name: "gdb"}.String())
}
