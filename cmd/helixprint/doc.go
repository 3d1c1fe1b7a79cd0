// Command helixprint runs the helixprint daemon and talks to it.
//
// "helixprint serve" starts the daemon next to Moonraker. The remaining
// commands call the daemon's HTTP API (status, print, phase, active,
// history, cleanup) or work on local files (instrument, strip, config, logs).
package main
