package docstore

import (
	"maps"
	"time"
)

// TimeLayout is the fixed-width UTC layout used when a backend stores
// timestamps as strings. Fixed width keeps lexical and chronological order equal.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// AsTime interprets v as a timestamp. Backends return either time.Time
// values or strings in RFC 3339 form.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if len(t) < len("2006-01-02T15:04:05Z") || t[4] != '-' || t[10] != 'T' {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

// AsSlice interprets v as an array field value.
func AsSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, el := range s {
			out[i] = el
		}
		return out
	case []map[string]any:
		out := make([]any, len(s))
		for i, el := range s {
			out[i] = el
		}
		return out
	default:
		return nil
	}
}

// String returns data[key] as a string, or "" when absent or of another type.
func String(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// Bool returns data[key] as a bool. Numeric 0/1 values written by SQL
// backends are accepted.
func Bool(data map[string]any, key string) bool {
	switch b := data[key].(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case float64:
		return b != 0
	default:
		return false
	}
}

// Time returns data[key] as a timestamp in UTC, or the zero time.
func Time(data map[string]any, key string) time.Time {
	t, ok := AsTime(data[key])
	if !ok {
		return time.Time{}
	}
	return t.UTC()
}

// Strings returns data[key] as a string slice, skipping non-string elements.
// The result is never nil.
func Strings(data map[string]any, key string) []string {
	raw := AsSlice(data[key])
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Maps returns data[key] as a slice of objects, skipping other elements.
func Maps(data map[string]any, key string) []map[string]any {
	raw := AsSlice(data[key])
	out := make([]map[string]any, 0, len(raw))
	for _, el := range raw {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// EncodeValue prepares a value for a backend that stores JSON: timestamps
// become fixed-width UTC strings, recursively.
func EncodeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(TimeLayout)
	case map[string]any:
		return EncodeFields(x)
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = EncodeValue(el)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = EncodeFields(el)
		}
		return out
	default:
		return v
	}
}

// EncodeFields applies EncodeValue to every field of data.
func EncodeFields(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = EncodeValue(v)
	}
	return out
}

// CloneData deep-copies document fields so callers cannot alias stored state.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := maps.Clone(data)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return CloneData(x)
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = cloneValue(el)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = el
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = CloneData(el)
		}
		return out
	default:
		return v
	}
}
