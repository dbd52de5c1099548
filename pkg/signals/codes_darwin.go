//go:build darwin

package signals

// si_code values from <sys/signal.h>. Darwin orders the ILL and FPE codes
// differently from Linux.
const (
	ILL_ILLOPC = 1
	ILL_ILLTRP = 2
	ILL_PRVOPC = 3
	ILL_ILLOPN = 4
	ILL_ILLADR = 5
	ILL_PRVREG = 6
	ILL_COPROC = 7
	ILL_BADSTK = 8

	FPE_FLTDIV = 1
	FPE_FLTOVF = 2
	FPE_FLTUND = 3
	FPE_FLTRES = 4
	FPE_FLTINV = 5
	FPE_FLTSUB = 6
	FPE_INTDIV = 7
	FPE_INTOVF = 8

	SEGV_MAPERR = 1
	SEGV_ACCERR = 2

	BUS_ADRALN = 1
	BUS_ADRERR = 2
	BUS_OBJERR = 3

	TRAP_BRKPT = 1
	TRAP_TRACE = 2

	CLD_EXITED    = 1
	CLD_KILLED    = 2
	CLD_DUMPED    = 3
	CLD_TRAPPED   = 4
	CLD_STOPPED   = 5
	CLD_CONTINUED = 6

	POLL_IN  = 1
	POLL_OUT = 2
	POLL_MSG = 3
	POLL_ERR = 4
	POLL_PRI = 5
	POLL_HUP = 6
)
