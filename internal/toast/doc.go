// Package toast delivers per-order alerts.
//
// A Toast carries a message, an action label, and an action callback. The
// in-memory Center keeps toasts active until they expire or are dismissed and
// runs the callback at most once. Additional channels mirror alerts to ntfy
// push topics and to the log; Multi fans a toast out to several channels.
package toast
