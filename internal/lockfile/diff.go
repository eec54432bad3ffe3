package lockfile

import (
	"fmt"
	"strings"

	"github.com/wI2L/jsondiff"
)

// Diff returns the JSON patch turning before into after. The updatedAt stamp
// is ignored.
func Diff(before, after *Lockfile) (jsondiff.Patch, error) {
	if before == nil {
		before = New()
	}
	if after == nil {
		after = New()
	}
	patch, err := jsondiff.Compare(before, after, jsondiff.Ignores("/updatedAt"))
	if err != nil {
		return nil, fmt.Errorf("diffing lockfiles: %w", err)
	}
	return patch, nil
}

// Describe renders a patch as short lines such as "astro: checksum changed".
func Describe(patch jsondiff.Patch) []string {
	var out []string
	seen := make(map[string]bool)
	for _, op := range patch {
		line := describeOperation(op)
		if line != "" && !seen[line] {
			seen[line] = true
			out = append(out, line)
		}
	}
	return out
}

func describeOperation(op jsondiff.Operation) string {
	parts := strings.Split(strings.TrimPrefix(op.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "entries" {
		return ""
	}
	slug := unescapePointer(parts[1])

	if len(parts) == 2 {
		switch op.Type {
		case jsondiff.OperationAdd:
			return slug + ": added"
		case jsondiff.OperationRemove:
			return slug + ": removed"
		default:
			return slug + ": replaced"
		}
	}
	return fmt.Sprintf("%s: %s changed", slug, parts[2])
}

// unescapePointer decodes a JSON pointer token.
func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
