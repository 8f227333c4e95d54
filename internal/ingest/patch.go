package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// AddedLinesFromPatch returns the new-file line numbers a unified patch adds.
// GitHub's per-file patch has no file headers, only hunks. Context lines advance
// the new-file counter, removed lines do not.
func AddedLinesFromPatch(patch string) ([]int, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}
	if !strings.HasSuffix(patch, "\n") {
		patch += "\n"
	}
	hunks, err := diff.ParseHunks([]byte(patch))
	if err != nil {
		return nil, fmt.Errorf("invalid patch: %w", err)
	}

	var added []int
	for _, h := range hunks {
		line := int(h.NewStartLine)
		body := bytes.TrimSuffix(h.Body, []byte("\n"))
		if len(body) == 0 {
			continue
		}
		for _, l := range bytes.Split(body, []byte("\n")) {
			if len(l) == 0 {
				line++
				continue
			}
			switch l[0] {
			case '+':
				added = append(added, line)
				line++
			case '-', '\\':
			default:
				line++
			}
		}
	}
	return added, nil
}
