//go:build unix

package crash

import (
	"fmt"
	"io"
	"runtime"
)

const (
	maxFrames = 64
	// goroutineBufSize is allocated at setup; a dump that does not fit is
	// truncated.
	goroutineBufSize = 1 << 20
)

// callers returns the PCs of the calling goroutine, skipping skip frames
// above the caller of callers.
func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

// writeRawBacktrace writes one line per frame: address, symbol with offset
// and source position.
func writeRawBacktrace(w io.Writer, pcs []uintptr) {
	frames := runtime.CallersFrames(pcs)
	for {
		fr, more := frames.Next()
		fn := fr.Function
		if fn == "" {
			fn = "?"
		}
		fmt.Fprintf(w, "0x%x %s+0x%x %s:%d\n", fr.PC, fn, fr.PC-fr.Entry, fr.File, fr.Line)
		if !more {
			break
		}
	}
}

// writeGoroutines dumps every goroutine's stack using buf.
func writeGoroutines(w io.Writer, buf []byte) {
	n := runtime.Stack(buf, true)
	_, _ = w.Write(buf[:n])
	if n == len(buf) {
		_, _ = io.WriteString(w, "\n(goroutine dump truncated)")
	}
	_, _ = io.WriteString(w, "\n")
}
