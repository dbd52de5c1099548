//go:build unix

package signals

import "syscall"

// Unknown is returned for signals without an entry in the table.
const Unknown = "Unknown signal"

// Describe returns the description of sig, refined by the si_code value code
// where the platform defines finer-grained causes. Codes that are not
// recognised, including the user-sent codes (SI_USER and friends), yield the
// coarse description of the signal.
func Describe(sig syscall.Signal, code int) string {
	switch sig {
	case syscall.SIGABRT:
		return "SIGABRT: Process abort signal"
	case syscall.SIGALRM:
		return "SIGALRM: Alarm clock"
	case syscall.SIGBUS:
		switch code {
		case BUS_ADRALN:
			return "SIGBUS: Access to an undefined portion of a memory object: Invalid address alignment"
		case BUS_ADRERR:
			return "SIGBUS: Access to an undefined portion of a memory object: Nonexistent physical address"
		case BUS_OBJERR:
			return "SIGBUS: Access to an undefined portion of a memory object: Object-specific hardware error"
		default:
			return "SIGBUS: Access to an undefined portion of a memory object"
		}
	case syscall.SIGCHLD:
		switch code {
		case CLD_EXITED:
			return "SIGCHLD: Child process terminated, stopped, or continued: Child has exited"
		case CLD_KILLED:
			return "SIGCHLD: Child process terminated, stopped, or continued: Child has terminated abnormally and did not create a core file"
		case CLD_DUMPED:
			return "SIGCHLD: Child process terminated, stopped, or continued: Child has terminated abnormally and created a core file"
		case CLD_TRAPPED:
			return "SIGCHLD: Child process terminated, stopped, or continued: Traced child has trapped"
		case CLD_STOPPED:
			return "SIGCHLD: Child process terminated, stopped, or continued: Child has stopped"
		case CLD_CONTINUED:
			return "SIGCHLD: Child process terminated, stopped, or continued: Stopped child has continued"
		default:
			return "SIGCHLD: Child process terminated, stopped, or continued"
		}
	case syscall.SIGCONT:
		return "SIGCONT: Continue executing, if stopped"
	case syscall.SIGFPE:
		switch code {
		case FPE_INTDIV:
			return "SIGFPE: Erroneous arithmetic operation: Integer divide by zero"
		case FPE_INTOVF:
			return "SIGFPE: Erroneous arithmetic operation: Integer overflow"
		case FPE_FLTDIV:
			return "SIGFPE: Erroneous arithmetic operation: Floating-point divide by zero"
		case FPE_FLTOVF:
			return "SIGFPE: Erroneous arithmetic operation: Floating-point overflow"
		case FPE_FLTUND:
			return "SIGFPE: Erroneous arithmetic operation: Floating-point underflow"
		case FPE_FLTRES:
			return "SIGFPE: Erroneous arithmetic operation: Floating-point inexact result"
		case FPE_FLTINV:
			return "SIGFPE: Erroneous arithmetic operation: Invalid floating-point operation"
		case FPE_FLTSUB:
			return "SIGFPE: Erroneous arithmetic operation: Subscript out of range"
		default:
			return "SIGFPE: Erroneous arithmetic operation"
		}
	case syscall.SIGHUP:
		return "SIGHUP: Hangup"
	case syscall.SIGILL:
		switch code {
		case ILL_ILLOPC:
			return "SIGILL: Illegal instruction: Illegal opcode"
		case ILL_ILLOPN:
			return "SIGILL: Illegal instruction: Illegal operand"
		case ILL_ILLADR:
			return "SIGILL: Illegal instruction: Illegal addressing mode"
		case ILL_ILLTRP:
			return "SIGILL: Illegal instruction: Illegal trap"
		case ILL_PRVOPC:
			return "SIGILL: Illegal instruction: Privileged opcode"
		case ILL_PRVREG:
			return "SIGILL: Illegal instruction: Privileged register"
		case ILL_COPROC:
			return "SIGILL: Illegal instruction: Coprocessor error"
		case ILL_BADSTK:
			return "SIGILL: Illegal instruction: Internal stack error"
		default:
			return "SIGILL: Illegal instruction"
		}
	case syscall.SIGINT:
		return "SIGINT: Terminal interrupt signal"
	case syscall.SIGKILL:
		return "SIGKILL: Kill"
	case syscall.SIGPIPE:
		return "SIGPIPE: Write on a pipe with no one to read it"
	case syscall.SIGQUIT:
		return "SIGQUIT: Terminal quit signal"
	case syscall.SIGSEGV:
		switch code {
		case SEGV_MAPERR:
			return "SIGSEGV: Invalid memory reference: Address not mapped to object"
		case SEGV_ACCERR:
			return "SIGSEGV: Invalid memory reference: Invalid permissions for mapped object"
		default:
			return "SIGSEGV: Invalid memory reference"
		}
	case syscall.SIGSTOP:
		return "SIGSTOP: Stop executing"
	case syscall.SIGTERM:
		return "SIGTERM: Termination signal"
	case syscall.SIGTSTP:
		return "SIGTSTP: Terminal stop signal"
	case syscall.SIGTTIN:
		return "SIGTTIN: Background process attempting read"
	case syscall.SIGTTOU:
		return "SIGTTOU: Background process attempting write"
	case syscall.SIGUSR1:
		return "SIGUSR1: User-defined signal 1"
	case syscall.SIGUSR2:
		return "SIGUSR2: User-defined signal 2"
	case syscall.SIGIO:
		switch code {
		case POLL_IN:
			return "SIGPOLL: Pollable event: Data input available"
		case POLL_OUT:
			return "SIGPOLL: Pollable event: Output buffers available"
		case POLL_MSG:
			return "SIGPOLL: Pollable event: Input message available"
		case POLL_ERR:
			return "SIGPOLL: Pollable event: I/O error"
		case POLL_PRI:
			return "SIGPOLL: Pollable event: High priority input available"
		case POLL_HUP:
			return "SIGPOLL: Pollable event: Device disconnected."
		default:
			return "SIGPOLL: Pollable event"
		}
	case syscall.SIGPROF:
		return "SIGPROF: Profiling timer expired"
	case syscall.SIGSYS:
		return "SIGSYS: Bad system call"
	case syscall.SIGTRAP:
		switch code {
		case TRAP_BRKPT:
			return "SIGTRAP: Trace/breakpoint trap: Process breakpoint"
		case TRAP_TRACE:
			return "SIGTRAP: Trace/breakpoint trap: Process trace trap"
		default:
			return "SIGTRAP: Trace/breakpoint trap"
		}
	case syscall.SIGURG:
		return "SIGURG: High bandwidth data is available at a socket"
	case syscall.SIGVTALRM:
		return "SIGVTALRM: Virtual timer expired"
	case syscall.SIGXCPU:
		return "SIGXCPU: CPU time limit exceeded"
	case syscall.SIGXFSZ:
		return "SIGXFSZ: File size limit exceeded"
	default:
		return Unknown
	}
}
