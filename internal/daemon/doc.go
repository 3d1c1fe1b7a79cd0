// Package daemon coordinates the long-running helixprint process.
//
// It wires configuration, the history store, the helix engine, the Moonraker
// client, and the HTTP API into a single lifecycle with flock-based locking to
// prevent multiple instances. Host notifications flow through a bridge that
// records jobs in the history store and forwards job-state changes and host
// availability to the engine. Print starts and finishes are pushed to ntfy
// when a topic is configured.
//
// Keep orchestration logic here: print handling lives in internal/helix and
// the host protocol in internal/moonraker.
package daemon
