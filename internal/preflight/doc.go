// Package preflight provides readiness checks for the filesystem paths,
// binaries, and services orderbell depends on.
//
// These checks run in two contexts:
//   - The CLI "orderbell preflight" command runs RunAll and prints each result.
//   - The daemon logs a dependency snapshot at startup using CheckSystemDeps.
//
// Optional integrations (history database, broker) are only checked when
// configured.
package preflight
