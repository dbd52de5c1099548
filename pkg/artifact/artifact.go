// Package artifact implements the crash dump file: a uniquely named,
// append-only, plain-text file created once per captured fault.
//
// Writes go straight to the file descriptor without buffering. A failed write
// is counted and reported to the caller but never poisons later writes, so the
// crash handler can keep filling the remaining sections best-effort.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultPrefix is prepended to the random suffix of artifact file names.
const DefaultPrefix = "faultline.gdmp-"

// Artifact is an open crash dump file.
type Artifact struct {
	file     *os.File
	path     string
	closed   bool
	failures int
	written  int64
}

// Pattern returns the file name template Create uses in dir, with the random
// part spelled as XXXXXX. It is what gets reported when creation fails.
func Pattern(dir, prefix string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, prefix+"XXXXXX")
}

// Create atomically creates a new artifact in dir (os.TempDir when empty).
// The name is prefix followed by a random suffix; the file is created with
// O_EXCL and mode 0600, so concurrent crashes never share a file.
func Create(dir, prefix string) (*Artifact, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create dump file %s: %w", Pattern(dir, prefix), err)
	}
	return &Artifact{file: f, path: f.Name()}, nil
}

// Path returns the absolute path of the artifact.
func (a *Artifact) Path() string {
	return a.path
}

// File exposes the underlying descriptor so a child process can inherit it
// as its standard output.
func (a *Artifact) File() *os.File {
	return a.file
}

// Write appends p to the artifact.
func (a *Artifact) Write(p []byte) (int, error) {
	if a.closed {
		return 0, os.ErrClosed
	}
	n, err := a.file.Write(p)
	a.written += int64(n)
	if err != nil {
		a.failures++
	}
	return n, err
}

// WriteString appends s to the artifact.
func (a *Artifact) WriteString(s string) (int, error) {
	return a.Write([]byte(s))
}

// Note appends s, ignoring any error. Failures are still counted.
func (a *Artifact) Note(s string) {
	_, _ = a.WriteString(s)
}

// Notef is Note with formatting.
func (a *Artifact) Notef(format string, args ...any) {
	_, _ = fmt.Fprintf(a, format, args...)
}

// Failures returns how many writes have failed so far.
func (a *Artifact) Failures() int {
	return a.failures
}

// Written returns the number of bytes successfully written through the
// artifact. Output written by a child process on the shared descriptor is
// not included.
func (a *Artifact) Written() int64 {
	return a.written
}

// Sync flushes the file to stable storage.
func (a *Artifact) Sync() error {
	if a.closed {
		return os.ErrClosed
	}
	return a.file.Sync()
}

// Close closes the file. An artifact is never reopened once closed.
func (a *Artifact) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.file.Close()
}

var _ io.StringWriter = (*Artifact)(nil)
