// Package daemon coordinates the long-running orderbell process.
//
// It wires the order poller, the notification pipeline, the toast center, the
// navigation feed, the visibility hub, and alert history into a single
// lifecycle with flock-based locking to prevent multiple instances. The daemon
// also owns the authenticated HTTP API that the operator UI uses to report
// visibility, activate toast actions, and drain navigation requests.
//
// Keep orchestration here: polling and alert semantics live in their own
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
