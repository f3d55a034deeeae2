package syncer

import (
	"fmt"
	"strings"
)

// NaturalKey is the ordered field tuple used to correlate a local record with
// its remote counterpart in the absence of a shared identifier. Two distinct
// records sharing a natural key collide during update/delete resolution; the
// engine acts on the first match.
type NaturalKey []KeyField

// KeyField is one named component of a natural key.
type KeyField struct {
	Name  string
	Value string
}

// String renders a canonical form suitable for map indexing. Field order is
// fixed by the adapter, so equal keys always render identically.
func (k NaturalKey) String() string {
	parts := make([]string, 0, len(k))
	for _, field := range k {
		parts = append(parts, field.Name+"="+field.Value)
	}
	return strings.Join(parts, "\x1f")
}

// Filter returns the key as remote query equality filters.
func (k NaturalKey) Filter() map[string]string {
	filter := make(map[string]string, len(k))
	for _, field := range k {
		filter[field.Name] = field.Value
	}
	return filter
}

// keyFromFields extracts the named key fields out of a remote field map. The
// names are iterated in the adapter's declared order.
func keyFromFields(names []string, fields map[string]any) NaturalKey {
	key := make(NaturalKey, 0, len(names))
	for _, name := range names {
		key = append(key, KeyField{Name: name, Value: stringValue(fields[name])})
	}
	return key
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
