package sync

import (
	"strings"
)

// MapFields builds a new object by copying the value at each canonical
// dotted path into the corresponding external dotted path. Missing source
// segments are skipped; values pass through untyped.
func MapFields(src map[string]interface{}, mapping map[string]string) map[string]interface{} {
	dst := make(map[string]interface{})
	for canonical, external := range mapping {
		if v, ok := lookupPath(src, canonical); ok {
			setPath(dst, external, v)
		}
	}
	return dst
}

// ReverseMapFields normalizes an external system's payload back into the
// canonical shape, using the same mapping table with source and target
// swapped.
func ReverseMapFields(src map[string]interface{}, mapping map[string]string) map[string]interface{} {
	dst := make(map[string]interface{})
	for canonical, external := range mapping {
		if v, ok := lookupPath(src, external); ok {
			setPath(dst, canonical, v)
		}
	}
	return dst
}

func lookupPath(obj map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = obj
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(obj map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	current := obj
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
