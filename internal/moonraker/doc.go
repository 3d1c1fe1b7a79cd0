// Package moonraker speaks Moonraker's websocket JSON-RPC 2.0 API.
//
// Client keeps one connection open, reconnecting after failures, and
// implements the print engine's host interface: gcode scripts go through
// printer.gcode.script and macro variables are read with
// printer.objects.query. Server notifications (status updates, job history
// changes, klippy state) are delivered in order on a separate goroutine so
// handlers may issue requests of their own.
package moonraker
