package hotness

import (
	"strings"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// ParseGitLog turns `git log --numstat --pretty=format:--%H|%an|%ad` output into
// touch events. Commits with an unparsable date are dropped.
func ParseGitLog(out []byte) []schema.TouchEvent {
	var events []schema.TouchEvent
	var current *schema.TouchEvent

	flush := func() {
		if current != nil && !current.Date.IsZero() && len(current.Paths) > 0 {
			events = append(events, *current)
		}
		current = nil
	}

	for _, l := range strings.Split(string(out), "\n") {
		l = strings.Trim(l, " \t\r\n'")
		if strings.HasPrefix(l, "--") {
			flush()
			current = &schema.TouchEvent{Date: parseCommitHeader(l)}
			continue
		}
		if l == "" || current == nil {
			continue
		}
		current.Paths = append(current.Paths, parseFileStatsLine(l)...)
	}
	flush()
	return events
}

// parseCommitHeader extracts the date from a "--hash|author|date" line.
func parseCommitHeader(line string) time.Time {
	parts := strings.SplitN(line[2:], "|", 3)
	if len(parts) != 3 {
		return time.Time{}
	}
	date, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return time.Time{}
	}
	return date
}

// parseFileStatsLine returns the path(s) of an "add\tdel\tpath" line. A rename
// yields the new path only.
func parseFileStatsLine(line string) []string {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 || parts[2] == "" {
		return nil
	}
	path := parts[2]
	if !strings.Contains(path, " => ") {
		return []string{path}
	}
	if newPath := renameTarget(path); newPath != "" {
		return []string{newPath}
	}
	return nil
}

// renameTarget resolves "old => new" and "prefix{old => new}suffix" forms.
func renameTarget(path string) string {
	start := strings.Index(path, "{")
	end := strings.Index(path, "}")
	if start == -1 || end == -1 || start >= end {
		parts := strings.SplitN(path, " => ", 2)
		if len(parts) != 2 || strings.ContainsAny(path, "{}") {
			return ""
		}
		return parts[1]
	}

	inner := strings.SplitN(path[start+1:end], " => ", 2)
	if len(inner) != 2 {
		return ""
	}
	target := path[:start] + inner[1] + path[end+1:]
	// "{ => sub}" style renames leave a doubled slash behind.
	return strings.ReplaceAll(target, "//", "/")
}
