package dependency

import (
	"fmt"
	"strings"
)

const (
	labelPrerequisite = "PREREQUISITE"
	labelDependant    = "DEPENDANT"
)

// annotation returns the note line pointing at another item.
func annotation(label, scheme, id, name string) string {
	return fmt.Sprintf("[%s: %s%s] %s", label, scheme, id, name)
}

// prependAnnotation puts line at the top of note, separated by a blank line.
func prependAnnotation(note, line string) string {
	return line + "\n\n" + note
}

// stripAnnotation removes the first annotation line for id, and the blank
// line after it. The older spaced form "[ LABEL: link ] name" is also
// recognised. It reports whether a line was removed.
func stripAnnotation(note, label, scheme, id string) (string, bool) {
	link := scheme + id
	prefixes := []string{
		"[" + label + ": " + link + "]",
		"[ " + label + ": " + link + " ]",
	}

	lines := strings.Split(note, "\n")
	for i, line := range lines {
		if !matchesAnnotation(line, prefixes) {
			continue
		}
		end := i + 1
		if end < len(lines) && lines[end] == "" {
			end++
		}
		return strings.Join(append(lines[:i:i], lines[end:]...), "\n"), true
	}
	return note, false
}

func matchesAnnotation(line string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if line == prefix || strings.HasPrefix(line, prefix+" ") {
			return true
		}
	}
	return false
}
