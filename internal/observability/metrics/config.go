package metrics

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Config identifies the service on emitted metrics.
type Config struct {
	ServiceName string
	Environment string
}

var droppedAttributeKeys = []string{
	"password",
	"clave",
	"secret",
	"token",
	"session",
	"authorization",
}

// FilterAttributes drops empty and sensitive attributes so instruments stay
// low-cardinality and safe.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		key := strings.ToLower(strings.TrimSpace(string(attr.Key)))
		if key == "" || attr.Value.Emit() == "" {
			continue
		}
		if isDroppedKey(key) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func isDroppedKey(key string) bool {
	for _, needle := range droppedAttributeKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}
