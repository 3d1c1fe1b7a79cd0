// Package phase inserts and removes phase tracking markers in gcode text.
//
// Instrument brackets a program with STARTING and COMPLETE markers and places
// a marker before every command that begins a recognised print phase. Each
// marker is a three line block: a versioned begin sentinel comment, a
// SET_GCODE_VARIABLE directive that records the phase on the printer, and an
// end sentinel comment. Strip removes those blocks again.
package phase
