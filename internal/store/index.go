package store

import (
	"slices"
	"strings"
)

// IndexFunc extracts the values a record contributes to one derived index.
type IndexFunc[T any] func(T) []string

// buildIndexes scans items once per index and returns deduplicated,
// alphabetically sorted values. Empty strings are skipped.
func buildIndexes[T any](items []T, defs map[string]IndexFunc[T]) map[string][]string {
	out := make(map[string][]string, len(defs))
	for name, fn := range defs {
		seen := make(map[string]struct{})
		values := []string{}
		for _, item := range items {
			for _, v := range fn(item) {
				if v == "" {
					continue
				}
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				values = append(values, v)
			}
		}
		slices.Sort(values)
		out[name] = values
	}
	return out
}

func one(v string) []string { return []string{v} }

// matchesTerm reports whether any field contains term, case-insensitively.
// term must already be lower-cased.
func matchesTerm(fields []string, term string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
