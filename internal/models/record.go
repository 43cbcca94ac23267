// Package models defines the shared data shapes of the replication engine:
// replicated records, queued offline changes, and the registry of
// synchronized collections.
package models

// Record is one replicated document, a JSON object keyed by field name.
// Every record carries an "id" plus the collection-specific fields and the
// implicit "created"/"updated" timestamps assigned by the server.
type Record map[string]any

// ID returns the record identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// GetString returns the string value of a field, or "" when absent or not a
// string.
func (r Record) GetString(field string) string {
	v, _ := r[field].(string)
	return v
}

// StringSlice coerces a field to a list of strings. JSON arrays decode as
// []any, so both []any and []string are accepted. A scalar string becomes a
// one-element list; anything else yields nil.
func (r Record) StringSlice(field string) []string {
	switch v := r[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Clone returns a deep copy of the record. Nested objects and arrays are
// copied; scalar values are shared (they are immutable after JSON decoding).
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = deepCopy(item)
		}
		return out
	case Record:
		return map[string]any(value.Clone())
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		out := make([]string, len(value))
		copy(out, value)
		return out
	default:
		return v
	}
}
