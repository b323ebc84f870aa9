package formengine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Values maps field name to its current value: a string, a bool or a
// []string. Use Normalize before storing anything decoded from JSON or BSON.
type Values map[string]any

// Normalize coerces a decoded value into one of the three stored shapes.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return t
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := Normalize(e).(string); ok {
				out = append(out, s)
			}
		}
		return out
	case primitive.A:
		return Normalize([]any(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprint(v)
	}
}

// Blank is the cleared value for a field of type t.
func Blank(t models.FieldType) any {
	if t == models.FieldBoolean {
		return false
	}
	return ""
}

// Meaningful reports whether v counts as provided: a non-blank string,
// a non-empty array or true.
func Meaningful(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case []string:
		return len(t) > 0
	default:
		return false
	}
}

// String returns the value of name as a string, "" when absent or not a string.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Bool returns the value of name as a bool.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Clone deep-copies the map, including array values.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if arr, ok := val.([]string); ok {
			cp := make([]string, len(arr))
			copy(cp, arr)
			out[k] = cp
			continue
		}
		out[k] = val
	}
	return out
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []string:
		y, ok := b.([]string)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

// coerce shapes v for a field with widget w.
func coerce(w Widget, v any) any {
	v = Normalize(v)
	switch w {
	case WidgetBoolean:
		switch t := v.(type) {
		case bool:
			return t
		case string:
			b, _ := strconv.ParseBool(strings.TrimSpace(t))
			return b
		default:
			return false
		}
	case WidgetList:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b)
		}
		return v
	default:
		if arr, ok := v.([]string); ok {
			return strings.Join(arr, ", ")
		}
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b)
		}
		return v
	}
}
