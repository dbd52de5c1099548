// Package signals maps fatal signal numbers and their si_code cause values to
// fixed human-readable descriptions, and defines the set of signals the crash
// handler subscribes to.
//
// Every string returned by Describe is a constant. The classifier runs while a
// fault is being handled, so it never allocates and never fails: unknown
// combinations fall back to a coarse per-signal description or to Unknown.
package signals
