// Package poller periodically fetches the restaurant's order list and reports
// orders it has not seen before.
//
// Each Start seeds the known-order set from one immediate fetch without
// alerting, then ticks at a fixed interval. Ticks never overlap: the loop
// handles one fetch at a time and a tick that fires while a fetch is in flight
// is coalesced. Fetch failures leave state untouched and the loop retries on
// the next tick.
package poller
