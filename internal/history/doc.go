// Package history persists modified prints and the print host's job ledger
// in SQLite.
//
// The prints table keeps one row per modified print the engine started, so a
// print's modifications survive daemon restarts. The jobs table mirrors the
// host's job history notifications and is the JobHistory the engine rewrites
// after cleanup so finished jobs name the user's original file instead of the
// internal symlink.
package history
