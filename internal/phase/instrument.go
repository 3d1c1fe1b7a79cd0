package phase

import "strings"

// Instrument returns text with phase markers inserted. The output always
// opens with a STARTING block and closes with a COMPLETE block, even for
// empty input. Lines are joined with "\n" and the result has no trailing
// newline. Instrumenting already instrumented text nests markers, so callers
// should Strip first.
func Instrument(text string) string {
	lines := splitLines(text)
	out := make([]string, 0, len(lines)+6)
	out = append(out, Block(Starting)...)
	for _, line := range lines {
		if phase, ok := Match(line); ok {
			out = append(out, Block(phase)...)
		}
		out = append(out, line)
	}
	out = append(out, Block(Complete)...)
	return strings.Join(out, "\n")
}

// Count returns how many phase markers Instrument would place between the
// STARTING and COMPLETE blocks, grouped by phase.
func Count(text string) map[Phase]int {
	counts := map[Phase]int{}
	for _, line := range splitLines(text) {
		if phase, ok := Match(line); ok {
			counts[phase]++
		}
	}
	return counts
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
