// Package alerts turns batches of newly detected orders into operator alerts.
//
// The Pipeline emits one toast per order and one urgent audio cycle per batch
// while the operator's surface is visible. While hidden, batches accumulate in
// a pending queue that is flushed, in arrival order and exactly once, when the
// surface becomes visible again. Audio failures are logged and never surface
// to callers.
package alerts
