//go:build unix

package signals

import "syscall"

// Fatal is the set of signals the crash handler subscribes to.
var Fatal = []syscall.Signal{
	syscall.SIGABRT,
	syscall.SIGBUS,
	syscall.SIGFPE,
	syscall.SIGILL,
	syscall.SIGQUIT,
	syscall.SIGSEGV,
	syscall.SIGSYS,
	syscall.SIGTRAP,
	syscall.SIGXCPU,
	syscall.SIGXFSZ,
}

// IsFatal reports whether sig belongs to Fatal.
func IsFatal(sig syscall.Signal) bool {
	for _, s := range Fatal {
		if s == sig {
			return true
		}
	}
	return false
}

// Name returns the conventional SIG* name of sig, or "SIGNAL" when the
// signal has no name in the table.
func Name(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGABRT:
		return "SIGABRT"
	case syscall.SIGALRM:
		return "SIGALRM"
	case syscall.SIGBUS:
		return "SIGBUS"
	case syscall.SIGCHLD:
		return "SIGCHLD"
	case syscall.SIGCONT:
		return "SIGCONT"
	case syscall.SIGFPE:
		return "SIGFPE"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGILL:
		return "SIGILL"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGPIPE:
		return "SIGPIPE"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	case syscall.SIGSEGV:
		return "SIGSEGV"
	case syscall.SIGSTOP:
		return "SIGSTOP"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGTSTP:
		return "SIGTSTP"
	case syscall.SIGTTIN:
		return "SIGTTIN"
	case syscall.SIGTTOU:
		return "SIGTTOU"
	case syscall.SIGUSR1:
		return "SIGUSR1"
	case syscall.SIGUSR2:
		return "SIGUSR2"
	case syscall.SIGIO:
		return "SIGPOLL"
	case syscall.SIGPROF:
		return "SIGPROF"
	case syscall.SIGSYS:
		return "SIGSYS"
	case syscall.SIGTRAP:
		return "SIGTRAP"
	case syscall.SIGURG:
		return "SIGURG"
	case syscall.SIGVTALRM:
		return "SIGVTALRM"
	case syscall.SIGXCPU:
		return "SIGXCPU"
	case syscall.SIGXFSZ:
		return "SIGXFSZ"
	default:
		return "SIGNAL"
	}
}
