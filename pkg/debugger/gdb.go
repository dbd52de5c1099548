package debugger

import (
	"fmt"
	"strconv"

	"github.com/willibrandon/faultline/pkg/artifact"
)

// DefaultFrame is the frame selected for disassembly when none is given.
const DefaultFrame = 4

// GDB drives gdb attached by PID. Frame is the stack frame that is
// disassembled, counted from the innermost.
type GDB struct {
	Frame int
}

func (GDB) Name() string    { return "GDB" }
func (GDB) Section() string { return artifact.GDBSection }

func (GDB) Command(tools Tools, pid int) (string, []string) {
	return tools.Debugger.Path, []string{tools.Program.Path, strconv.Itoa(pid)}
}

func (g GDB) Script() []byte {
	return Script(g.Frame)
}

// Script returns the command sequence fed to gdb: a full backtrace, the
// disassembly of the given frame, the register file, then quit.
func Script(frame int) []byte {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return fmt.Appendf(nil, "backtrace full\nframe %d\ndisassemble\ninfo registers\nquit\n", frame)
}
