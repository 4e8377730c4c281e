// Package history records every emitted order alert for later review.
//
// The history is an audit trail only: the alerting core never reads it back,
// so detection state still lives in memory for a single session. SQLite is
// the default backend; PostgreSQL serves installations that share history
// across machines, and the "none" driver disables recording.
package history
