// Package logs reads the daemon log file for the CLI: the last N lines, and
// a polling follower that streams lines appended afterwards.
package logs
