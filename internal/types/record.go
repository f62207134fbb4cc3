package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is an opaque stored document. Values are whatever the caller put
// in, subject only to being JSON-encodable; "id" is the primary key.
type Record map[string]any

// ID returns the record's primary key, or "" when unset.
func (r Record) ID() string {
	return r.String("id")
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value at key rendered as a string. Missing keys and
// nil values yield "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Int returns the value at key as an int. Handles the numeric types a JSON
// round trip can produce.
func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Bool returns the value at key as a bool, false when absent or not a bool.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Clone returns a deep copy. Nested maps and slices are copied so callers
// can mutate the clone without touching the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of r with patch's keys written over it. Patch keys
// with nil values are kept, so callers can clear fields explicitly.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, nested := range tv {
			out[k] = cloneValue(nested)
		}
		return out
	case Record:
		return map[string]any(tv.Clone())
	case []any:
		out := make([]any, len(tv))
		for i, nested := range tv {
			out[i] = cloneValue(nested)
		}
		return out
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	default:
		return v
	}
}
