package phase

import "strings"

// Strip removes every span from a begin sentinel to the next end sentinel.
// Unterminated or nested begin sentinels and lone end sentinels are left in
// place. All kept bytes, line endings included, are preserved.
func Strip(text string) string {
	if !strings.Contains(text, "HELIX_TRACKING") {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var b strings.Builder
	b.Grow(len(text))
	removedTail := false
	for i := 0; i < len(lines); {
		if isBegin(lines[i]) {
			j := i + 1
			for j < len(lines) && !isBegin(lines[j]) && !isEnd(lines[j]) {
				j++
			}
			if j < len(lines) && isEnd(lines[j]) {
				removedTail = j == len(lines)-1
				i = j + 1
				continue
			}
		}
		b.WriteString(lines[i])
		removedTail = false
		i++
	}

	out := b.String()
	if removedTail && !strings.HasSuffix(text, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}
