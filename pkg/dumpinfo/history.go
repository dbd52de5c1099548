package dumpinfo

import (
	"bytes"
	"io"
	"sync"

	"github.com/willibrandon/faultline/pkg/artifact"
)

// DefaultHistoryLines is the number of log lines kept when no size is given.
const DefaultHistoryLines = 64

// maxLineLen caps a single stored line; longer lines are truncated.
const maxLineLen = 1024

// History keeps the most recent log lines in a fixed-size ring. It is an
// io.Writer so a logger can tee into it, and it implements LogWriter so the
// crash handler can dump it into an artifact.
type History struct {
	mu      sync.Mutex
	lines   [][]byte
	next    int
	full    bool
	partial []byte
}

// NewHistory creates a ring holding up to size lines.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistoryLines
	}
	return &History{lines: make([][]byte, size)}
}

// Write splits p into lines and stores each complete line. A trailing
// fragment without newline is held until the next write completes it.
func (h *History) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(p)
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			h.partial = appendCapped(h.partial, p)
			break
		}
		line := appendCapped(h.partial, p[:i])
		h.partial = nil
		h.push(line)
		p = p[i+1:]
	}
	return n, nil
}

func appendCapped(dst, src []byte) []byte {
	room := maxLineLen - len(dst)
	if room <= 0 {
		return dst
	}
	if len(src) > room {
		src = src[:room]
	}
	return append(dst, src...)
}

func (h *History) push(line []byte) {
	// Reuse the slot's backing array once the ring has wrapped.
	slot := h.lines[h.next][:0]
	h.lines[h.next] = append(slot, line...)
	h.next++
	if h.next == len(h.lines) {
		h.next = 0
		h.full = true
	}
}

// Lines returns a copy of the stored lines, oldest first.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []string
	h.each(func(line []byte) {
		out = append(out, string(line))
	})
	return out
}

func (h *History) each(fn func([]byte)) {
	if h.full {
		for _, l := range h.lines[h.next:] {
			fn(l)
		}
	}
	for _, l := range h.lines[:h.next] {
		fn(l)
	}
}

// WriteRecentLog dumps the history into w under the log section label. It
// never waits for the ring's lock: when a writer currently holds it (for
// instance the goroutine that faulted mid-log) a note is written instead.
func (h *History) WriteRecentLog(w io.Writer) error {
	if _, err := io.WriteString(w, artifact.LogSection); err != nil {
		return err
	}
	if !h.mu.TryLock() {
		_, err := io.WriteString(w, "(log history busy, not dumped)\n\n")
		return err
	}
	defer h.mu.Unlock()

	var firstErr error
	h.each(func(line []byte) {
		if _, err := w.Write(line); err != nil && firstErr == nil {
			firstErr = err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	if _, err := io.WriteString(w, "\n"); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
