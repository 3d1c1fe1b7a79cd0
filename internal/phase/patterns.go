package phase

import (
	"regexp"
	"strings"
)

// Phase names a coarse stage of a print.
type Phase string

const (
	Starting      Phase = "STARTING"
	Homing        Phase = "HOMING"
	QGL           Phase = "QGL"
	ZTilt         Phase = "Z_TILT"
	BedMesh       Phase = "BED_MESH"
	Cleaning      Phase = "CLEANING"
	Purging       Phase = "PURGING"
	HeatingNozzle Phase = "HEATING_NOZZLE"
	HeatingBed    Phase = "HEATING_BED"
	Complete      Phase = "COMPLETE"
)

// Pattern pairs a command matcher with the phase it starts.
type Pattern struct {
	Phase   Phase
	Example string
	re      *regexp.Regexp
}

// Matches reports whether code, a line with its comment removed, starts the phase.
func (p Pattern) Matches(code string) bool {
	return p.re.MatchString(code)
}

// Table order matters: the first matching pattern wins.
var patterns = []Pattern{
	{Phase: Homing, Example: "G28", re: regexp.MustCompile(`(?i)^G28\b`)},
	{Phase: QGL, Example: "QUAD_GANTRY_LEVEL", re: regexp.MustCompile(`(?i)^QUAD_GANTRY_LEVEL\b`)},
	{Phase: ZTilt, Example: "Z_TILT_ADJUST", re: regexp.MustCompile(`(?i)^Z_TILT_ADJUST\b`)},
	{Phase: BedMesh, Example: "BED_MESH_CALIBRATE", re: regexp.MustCompile(`(?i)^BED_MESH_CALIBRATE\b`)},
	{Phase: Cleaning, Example: "CLEAN_NOZZLE", re: regexp.MustCompile(`(?i)^(CLEAN_NOZZLE|WIPE_NOZZLE|NOZZLE_CLEAN|NOZZLE_WIPE)\b`)},
	{Phase: Purging, Example: "VORON_PURGE", re: regexp.MustCompile(`(?i)^\w*PURGE\w*\b`)},
	{Phase: HeatingNozzle, Example: "M109 S215", re: regexp.MustCompile(`(?i)^M109\b`)},
	{Phase: HeatingBed, Example: "M190 S60", re: regexp.MustCompile(`(?i)^M190\b`)},
}

// Patterns returns the phase table in match order.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// Match returns the phase started by line, if any. Comment lines never match
// and trailing comments are ignored.
func Match(line string) (Phase, bool) {
	code, ok := codePortion(line)
	if !ok {
		return "", false
	}
	for _, p := range patterns {
		if p.Matches(code) {
			return p.Phase, true
		}
	}
	return "", false
}

// codePortion returns the command text of line with any comment removed. It
// reports false for blank and comment-only lines.
func codePortion(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || isComment(trimmed) {
		return "", false
	}
	if idx := strings.IndexAny(trimmed, ";#"); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	return trimmed, trimmed != ""
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#")
}
