package notification

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Payload is the map of host entity identifiers sent with an event.
type Payload map[string]any

// ID returns the first key that holds a positive integer id.
// Keys may be dotted paths into nested objects, as in "params.serviceid".
func (p Payload) ID(keys ...string) (int64, bool) {
	for _, key := range keys {
		if id, ok := toID(p.lookup(key)); ok {
			return id, true
		}
	}
	return 0, false
}

// String returns the value at key as trimmed text.
func (p Payload) String(key string) string {
	switch v := p.lookup(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func (p Payload) lookup(path string) any {
	var current any = map[string]any(p)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func toID(v any) (int64, bool) {
	var id int64
	switch n := v.(type) {
	case int:
		id = int64(n)
	case int64:
		id = n
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		id = int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		id = parsed
	default:
		return 0, false
	}
	return id, id > 0
}
