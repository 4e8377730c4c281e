// Package logs tails the daemon log for the "orderbell logs" command.
//
// Reads use bounded memory: a negative offset returns the last N matching
// lines, a non-negative offset resumes where the previous call stopped, and
// follow mode polls until new lines arrive or the wait expires.
package logs
