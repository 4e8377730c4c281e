// Command orderbell is the operator CLI and daemon entrypoint.
//
// "orderbell daemon" runs the poller in the foreground; the remaining
// commands talk to a running daemon over its JSON-RPC unix socket, launching
// it in the background when "start" finds no socket.
package main
