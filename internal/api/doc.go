// Package api defines wire-format types and converters shared by the HTTP
// API, the IPC control plane, and the CLI. It translates internal order,
// toast, history, and poller models into transport-friendly DTOs so that the
// operator UI can render them without coupling to internal types.
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds and
// are omitted when zero. Amounts are passed as numbers; formatted labels are
// added alongside for consumers that only display them.
package api
