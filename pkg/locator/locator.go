// Package locator resolves the absolute paths of the running executable and
// of external tools (the debugger) once at startup, so the crash path never
// has to search PATH.
package locator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// MaxPath bounds a resolved path. Longer results are treated as unavailable.
const MaxPath = 4096

var (
	// ErrNotFound is returned when a command cannot be resolved.
	ErrNotFound = errors.New("command not found")
	// ErrPathTooLong is returned when the resolver output exceeds MaxPath.
	ErrPathTooLong = errors.New("resolved path too long")
)

// ToolLocation is the cached result of a lookup.
type ToolLocation struct {
	Name      string
	Path      string
	Available bool
}

func (l ToolLocation) String() string {
	if !l.Available {
		return l.Name + ": not available"
	}
	return l.Name + ": " + l.Path
}

// Resolver turns a command name into a path.
type Resolver func(ctx context.Context, name string) (string, error)

// Locator resolves tool locations, logging failures as warnings.
type Locator struct {
	resolve Resolver
	logger  zerolog.Logger
}

// New creates a Locator. A nil resolver means WhichResolver.
func New(resolve Resolver, logger zerolog.Logger) *Locator {
	if resolve == nil {
		resolve = WhichResolver
	}
	return &Locator{
		resolve: resolve,
		logger:  logger.With().Str("component", "locator").Logger(),
	}
}

// Locate resolves name. It never fails: an unresolvable command yields a
// location that is not available.
func (l *Locator) Locate(ctx context.Context, name string) ToolLocation {
	loc := ToolLocation{Name: name}
	if name == "" {
		return loc
	}

	path, err := l.resolve(ctx, name)
	if err == nil {
		path, err = absolute(path)
	}
	if err != nil {
		l.logger.Warn().Err(err).Str("command", name).Msg("Command not available")
		return loc
	}

	loc.Path = path
	loc.Available = true
	l.logger.Debug().Str("command", name).Str("path", path).Msg("Resolved command")
	return loc
}

// Executable resolves the running program. os.Executable is preferred;
// argv0 is resolved through the Locator's resolver when it fails.
func (l *Locator) Executable(ctx context.Context, argv0 string) ToolLocation {
	loc := ToolLocation{Name: "program"}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		loc.Path = exe
		loc.Available = true
		return loc
	}

	if argv0 == "" {
		l.logger.Warn().Msg("Program path not available")
		return loc
	}
	if strings.ContainsRune(argv0, os.PathSeparator) {
		path, err := absolute(argv0)
		if err == nil {
			if _, err = os.Stat(path); err == nil {
				loc.Path, loc.Available = path, true
				return loc
			}
		}
		l.logger.Warn().Err(err).Str("argv0", argv0).Msg("Program path not available")
		return loc
	}

	found := l.Locate(ctx, argv0)
	found.Name = loc.Name
	return found
}

func absolute(path string) (string, error) {
	if path == "" {
		return "", ErrNotFound
	}
	if len(path) > MaxPath {
		return "", ErrPathTooLong
	}
	return filepath.Abs(path)
}

// WhichResolver asks `which` for the command, reading at most MaxPath bytes
// of its output. Overflowing output is rejected rather than truncated.
func WhichResolver(ctx context.Context, name string) (string, error) {
	cmd := exec.CommandContext(ctx, "which", name)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open pipe for which: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to run which: %w", err)
	}

	out, readErr := readBounded(stdout)
	waitErr := cmd.Wait()
	if readErr != nil {
		return "", readErr
	}
	if waitErr != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return out, nil
}

// readBounded reads r up to MaxPath bytes, drains the rest, and returns the
// first line. Output beyond MaxPath is ErrPathTooLong, empty output
// ErrNotFound.
func readBounded(r io.Reader) (string, error) {
	buf, err := io.ReadAll(io.LimitReader(r, MaxPath+1))
	_, _ = io.Copy(io.Discard, r)
	if err != nil {
		return "", err
	}
	if len(buf) > MaxPath {
		return "", ErrPathTooLong
	}
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}
	if len(buf) == 0 {
		return "", ErrNotFound
	}
	return string(buf), nil
}

// LookPathResolver resolves the command with exec.LookPath.
func LookPathResolver(_ context.Context, name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}
