// Package visibility broadcasts whether the operator's surface is currently
// shown. Hosts call Set when the surface reports a change; consumers subscribe
// once and unsubscribe at teardown.
package visibility
