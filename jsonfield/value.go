// Package jsonfield reads JSON documents that the warehouse stores as text.
//
// Columns such as source_details, meta and conversation_evaluation are free-form
// and change shape between releases. Every accessor here is total: malformed,
// empty or missing input yields an absent Value instead of an error.
package jsonfield

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type Kind int

const (
	Absent Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "absent"
	}
}

// Value is a tagged JSON value. The zero Value is absent.
type Value struct {
	res     gjson.Result
	present bool
}

// Parse returns the document held in raw, or an absent Value when raw is
// empty, the literal "null", does not start with '{' or '[', or is not valid JSON.
func Parse(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return Value{}
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return Value{}
	}
	if !gjson.Valid(trimmed) {
		return Value{}
	}
	return Value{res: gjson.Parse(trimmed), present: true}
}

// ParseAny is like Parse but also accepts scalar documents such as "\"sales\""
// or 42. Plain text that is not JSON is still absent.
func ParseAny(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return Value{}
	}
	return Value{res: gjson.Parse(trimmed), present: true}
}

func wrap(res gjson.Result) Value {
	if !res.Exists() {
		return Value{}
	}
	return Value{res: res, present: true}
}

// Get walks a dot separated path ("feedback.value"). Missing keys, nulls in the
// middle of the path and non-object parents all produce an absent Value.
func (v Value) Get(path string) Value {
	if !v.present || !v.res.IsObject() {
		return Value{}
	}
	cur := v
	for _, key := range strings.Split(path, ".") {
		if !cur.res.IsObject() {
			return Value{}
		}
		cur = wrap(cur.res.Get(escapeKey(key)))
		if !cur.present {
			return Value{}
		}
	}
	return cur
}

// escapeKey neutralises gjson path syntax so a key is matched literally.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (v Value) Kind() Kind {
	if !v.present {
		return Absent
	}
	switch v.res.Type {
	case gjson.Null:
		return Null
	case gjson.True, gjson.False:
		return Bool
	case gjson.Number:
		return Number
	case gjson.String:
		return String
	}
	if v.res.IsArray() {
		return Array
	}
	return Object
}

// Exists reports whether the value is present and not JSON null.
func (v Value) Exists() bool {
	k := v.Kind()
	return k != Absent && k != Null
}

// Raw returns the JSON text of the value, or "" when absent.
func (v Value) Raw() string {
	if !v.present {
		return ""
	}
	return v.res.Raw
}

// Str returns the value when it is a JSON string.
func (v Value) Str() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.res.Str, true
}

// Text returns a scalar as display text: strings as-is, numbers and booleans
// in their JSON spelling. Absent, null, arrays and objects report false.
func (v Value) Text() (string, bool) {
	switch v.Kind() {
	case String:
		return v.res.Str, true
	case Number, Bool:
		return v.res.Raw, true
	}
	return "", false
}

// NonEmptyText is Text with blank strings treated as missing.
func (v Value) NonEmptyText() (string, bool) {
	s, ok := v.Text()
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int reads an integer from a JSON number or a numeric string ("5", " 4 ").
// Fractional numbers are truncated.
func (v Value) Int() (int, bool) {
	switch v.Kind() {
	case Number:
		return int(v.res.Float()), true
	case String:
		s := strings.TrimSpace(v.res.Str)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

// Bool reads a JSON boolean or its string spelling, case-insensitively.
func (v Value) Bool() (bool, bool) {
	switch v.Kind() {
	case Bool:
		return v.res.Type == gjson.True, true
	case String:
		return ParseBoolText(v.res.Str)
	}
	return false, false
}

// ParseBoolText accepts "true" and "false" in any case, surrounded by blanks.
func ParseBoolText(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Elements returns the items of an array; anything else yields nil.
func (v Value) Elements() []Value {
	if v.Kind() != Array {
		return nil
	}
	items := v.res.Array()
	out := make([]Value, 0, len(items))
	for _, item := range items {
		out = append(out, Value{res: item, present: true})
	}
	return out
}

// ForEach visits object members in document order. It is a no-op for
// anything other than an object.
func (v Value) ForEach(fn func(key string, val Value) bool) {
	if v.Kind() != Object {
		return
	}
	v.res.ForEach(func(key, val gjson.Result) bool {
		return fn(key.String(), Value{res: val, present: true})
	})
}
