// Package searchfilter narrows record lists the way the list screens do:
// case-insensitive substring match over a fixed set of fields per entity.
package searchfilter

import (
	"fmt"
	"strings"
)

// Record is a generic row as decoded from JSON or built from a model.
type Record map[string]any

// Filter returns the subsequence of records whose configured fields contain
// the query, comparing lowercased strings. An empty query returns the source
// slice unchanged. Result order follows source order; the source is never
// mutated. Missing or nil fields simply do not match.
func Filter(records []Record, query string, fields []string) []Record {
	if query == "" {
		return records
	}
	needle := strings.ToLower(query)

	out := make([]Record, 0, len(records))
	for _, record := range records {
		if matches(record, needle, fields) {
			out = append(out, record)
		}
	}
	return out
}

func matches(record Record, needle string, fields []string) bool {
	if record == nil {
		return false
	}
	for _, field := range fields {
		value, ok := record[field]
		if !ok || value == nil {
			continue
		}
		if strings.Contains(strings.ToLower(stringify(value)), needle) {
			return true
		}
	}
	return false
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	case float64:
		// JSON numbers decode as float64; render integers without a point.
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%v", typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
