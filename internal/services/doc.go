// Package services defines the error markers shared by the print engine, the
// filesystem helpers, and the HTTP and CLI surfaces.
//
// Failures are tagged with one of the exported sentinels through Wrap so the
// API server can map them to status codes with errors.Is while the message
// still carries component and operation context.
package services
