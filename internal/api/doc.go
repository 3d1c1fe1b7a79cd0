// Package api defines the wire format of the helixprint HTTP API and a typed
// client for it.
//
// Every response body is an Envelope: successful calls carry "result", failed
// calls carry "error" with the HTTP status, a short reason code, and a
// message. Field names are snake_case to match Moonraker's own API, which
// front ends already speak.
//
// # Key Types
//
// PrintModifiedRequest/PrintModifiedResult: start a modified print.
//
// Status: engine configuration and active print count.
//
// ActivePrint: one tracked print, converted from helix.PrintInfo.
//
// HistoryJob: one row of the job ledger, converted from helix.JobRecord.
//
// # Client
//
// Client talks to a running daemon. Errors returned by the daemon come back as
// *Error values whose Unwrap yields the matching services sentinel, so callers
// can classify them with errors.Is exactly as the daemon did.
package api
