package narrative

import (
	"reflect"
	"sort"
)

// DiffContent walks two content trees and emits one entry per differing leaf.
// Objects are compared key-by-key over the sorted union of their keys; any
// other value is compared structurally. Equal trees yield a nil list.
func DiffContent(a, b map[string]any) []FieldDiff {
	return diffNodes("", a, b)
}

func diffNodes(prefix string, a, b map[string]any) []FieldDiff {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var diffs []FieldDiff
	for _, key := range sorted {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		oldVal, hasOld := a[key]
		newVal, hasNew := b[key]

		oldMap, oldIsMap := oldVal.(map[string]any)
		newMap, newIsMap := newVal.(map[string]any)
		if hasOld && hasNew && oldIsMap && newIsMap {
			diffs = append(diffs, diffNodes(path, oldMap, newMap)...)
			continue
		}

		if hasOld && hasNew && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		diffs = append(diffs, FieldDiff{Field: path, OldValue: oldVal, NewValue: newVal})
	}
	return diffs
}
