package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindStringList
)

// Value is a small tagged union for tool argument values:
// string, number, bool, or array-of-string.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
}

// String creates a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates a numeric Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Int creates a numeric Value from an integer.
func Int(n int) Value {
	return Value{kind: KindNumber, num: float64(n)}
}

// Bool creates a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// StringList creates an array-of-string Value.
func StringList(items ...string) Value {
	return Value{kind: KindStringList, list: append([]string(nil), items...)}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the string variant, with ok reporting whether it applies.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric variant, with ok reporting whether it applies.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean variant, with ok reporting whether it applies.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsStringList returns a copy of the list variant, with ok reporting whether it applies.
func (v Value) AsStringList() ([]string, bool) {
	if v.kind != KindStringList {
		return nil, false
	}
	return append([]string(nil), v.list...), true
}

// MarshalJSON encodes the active variant.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("unknown value kind: %d", v.kind)
	}
}

// UnmarshalJSON decodes into the matching variant.
// Arrays must contain only strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("array values must contain only strings: %w", err)
		}
		*v = StringList(items...)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported value type: %s", string(data))
		}
		*v = Number(n)
	}

	return nil
}

// Argument is one key/value pair of a tool call.
type Argument struct {
	Key   string
	Value Value
}

// Arguments is an ordered mapping of argument keys to values.
// Insertion order is preserved through JSON marshaling so request lines
// are deterministic for a given call.
type Arguments []Argument

// NewArguments creates an Arguments list from the given pairs.
func NewArguments(args ...Argument) Arguments {
	return append(Arguments(nil), args...)
}

// Set appends the key/value pair, replacing the value in place if the key exists.
func (a Arguments) Set(key string, value Value) Arguments {
	for i := range a {
		if a[i].Key == key {
			a[i].Value = value
			return a
		}
	}
	return append(a, Argument{Key: key, Value: value})
}

// Get returns the value for key, with ok reporting whether it was present.
func (a Arguments) Get(key string) (Value, bool) {
	for _, arg := range a {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the argument keys in insertion order.
func (a Arguments) Keys() []string {
	keys := make([]string, 0, len(a))
	for _, arg := range a {
		keys = append(keys, arg.Key)
	}
	return keys
}

// MarshalJSON encodes the arguments as a JSON object, preserving insertion order.
func (a Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arg := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(arg.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(arg.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into ordered arguments.
func (a *Arguments) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("arguments must be a JSON object")
	}

	var args Arguments
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("invalid argument key: %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var val Value
		if err := val.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("argument %q: %w", key, err)
		}
		args = append(args, Argument{Key: key, Value: val})
	}

	*a = args
	return nil
}
