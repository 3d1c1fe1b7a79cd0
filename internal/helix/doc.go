// Package helix runs modified prints on the print host.
//
// A client uploads a modified copy of a gcode file into the temp directory
// and asks the Engine to print it. The engine publishes the copy behind a
// symlink that carries the original basename, records the print in an
// in-memory registry, and starts it on the host. Job-state notifications
// later drive a delayed cleanup that removes the link and the copy and
// rewrites the host's job history so it names the original file.
//
// The engine reaches its surroundings only through the small interfaces in
// interfaces.go, which the daemon satisfies with the TOML config, the
// Moonraker client, and the SQLite history store.
package helix
