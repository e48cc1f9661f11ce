package narrative

import "strings"

// MergeEdits reapplies founder-sourced edits onto freshly synthesized
// content. An edit whose parent path no longer exists in the new shape is
// silently skipped: schema drift between generations must not crash the
// merge. Returns the merged content and the edits that still applied.
func MergeEdits(content map[string]any, edits []Edit) (map[string]any, []Edit) {
	var applied []Edit
	for _, edit := range edits {
		if edit.Source != SourceFounder {
			continue
		}
		if setExistingPath(content, edit.Field, edit.Value) {
			applied = append(applied, edit)
		}
	}
	return content, applied
}

// setExistingPath writes value at a dotted path, walking only through maps
// that already exist. It reports false (and writes nothing) when any parent
// segment is missing or is not an object.
func setExistingPath(content map[string]any, path string, value any) bool {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || path == "" {
		return false
	}

	node := content
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg]
		if !ok {
			return false
		}
		childMap, ok := child.(map[string]any)
		if !ok {
			return false
		}
		node = childMap
	}

	node[segments[len(segments)-1]] = value
	return true
}

// lookupPath reads the value at a dotted path, if present.
func lookupPath(content map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || path == "" {
		return nil, false
	}

	node := content
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	val, ok := node[segments[len(segments)-1]]
	return val, ok
}

// founderEdits filters the history down to founder-sourced entries; these
// are the only ones retained across a regeneration.
func founderEdits(history []Edit) []Edit {
	var out []Edit
	for _, edit := range history {
		if edit.Source == SourceFounder {
			out = append(out, edit)
		}
	}
	return out
}
