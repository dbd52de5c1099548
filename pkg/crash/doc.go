// Package crash captures fatal faults of the running process into a crash
// artifact and then lets the process die the way it would have without it.
//
// Setup resolves the program and debugger paths, renders the artifact header
// and installs a handler for the fatal signals. When one arrives, the
// Responder writes the header, the fault description, the recent log, an
// in-process backtrace and a goroutine dump, asks the debugger for an
// extended backtrace, tells the user where the file is, and re-raises the
// signal through the disposition that was in place before installation.
//
// Faults raised by Go code itself surface as panics. A deferred Guard routes
// them into the same Responder before the panic continues:
//
//	func main() {
//		crash.Setup(os.Args)
//		defer crash.Guard()
//		...
//	}
//
// At most one fault is captured per process. A fault that arrives while
// another is being handled goes straight to the default disposition.
package crash
