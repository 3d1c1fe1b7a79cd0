// Package preflight provides readiness checks for the filesystem paths and
// print host that helixprint depends on.
//
// These checks run in two contexts:
//   - "helixprint serve" calls RunAll before starting the daemon and refuses to
//     start when a required directory is unusable.
//   - "helixprint status" uses the individual checks to display host health.
//
// Checks for managed subdirectories are skipped when helix printing is disabled.
package preflight
