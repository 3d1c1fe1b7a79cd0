// Package notifications sends ntfy push messages about modified prints.
//
// A Service is built from the [notifications] config section. When no topic
// is configured NewService returns a no-op implementation, so callers can
// publish unconditionally.
package notifications
