// Package gcodefs owns every filesystem operation under the print host's
// gcode root: resolving client supplied relative names, publishing modified
// files behind symlinks that carry the original basename, and sweeping
// artifacts left behind by a previous run.
//
// All inputs are root-relative slash paths. Absolute inputs and names that
// escape the root after cleaning are rejected with services.ErrInvalidPath.
package gcodefs
