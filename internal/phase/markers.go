package phase

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkerVersion is embedded in the begin sentinel.
	MarkerVersion = 1
	// StateMacro holds the phase and tracking variables on the printer.
	StateMacro = "_HELIX_PHASE_STATE"
)

var (
	BeginSentinel = fmt.Sprintf("# HELIX_TRACKING v%d", MarkerVersion)
	EndSentinel   = "# /HELIX_TRACKING"

	beginRe = regexp.MustCompile(`^#\s*HELIX_TRACKING\s+v\d+$`)
	endRe   = regexp.MustCompile(`^#\s*/HELIX_TRACKING$`)
)

// Directive returns the command that records phase on the printer.
func Directive(phase Phase) string {
	return fmt.Sprintf(`SET_GCODE_VARIABLE MACRO=%s VARIABLE=phase VALUE='"%s"'`, StateMacro, phase)
}

// Block returns the marker lines for phase.
func Block(phase Phase) []string {
	return []string{BeginSentinel, Directive(phase), EndSentinel}
}

func isBegin(line string) bool {
	return beginRe.MatchString(strings.TrimSpace(line))
}

func isEnd(line string) bool {
	return endRe.MatchString(strings.TrimSpace(line))
}
