package frontmatter

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type carried by an AttributeValue.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindList
)

var numberRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// AttributeValue is a single frontmatter value.
type AttributeValue struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	List []string
}

// StringValue returns a string attribute value.
func StringValue(s string) AttributeValue { return AttributeValue{Kind: KindString, Str: s} }

// NumberValue returns a numeric attribute value.
func NumberValue(n float64) AttributeValue { return AttributeValue{Kind: KindNumber, Num: n} }

// BoolValue returns a boolean attribute value.
func BoolValue(b bool) AttributeValue { return AttributeValue{Kind: KindBool, Bool: b} }

// ListValue returns a list attribute value.
func ListValue(items ...string) AttributeValue {
	return AttributeValue{Kind: KindList, List: append([]string{}, items...)}
}

// Coerce converts raw attribute text into a typed value. Quoted text is
// always a string with the quotes removed.
func Coerce(raw string) AttributeValue {
	s := strings.TrimSpace(raw)
	if unq, ok := unquote(s); ok {
		return StringValue(unq)
	}
	switch s {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if numberRe.MatchString(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return NumberValue(n)
		}
	}
	return StringValue(s)
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	switch first, last := s[0], s[len(s)-1]; {
	case first == '\'' && last == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
	case first == '"' && last == '"':
		if u, err := strconv.Unquote(s); err == nil {
			return u, true
		}
		return s[1 : len(s)-1], true
	}
	return "", false
}

// String renders the value the way it would appear after "key: ".
// Lists are joined with ", ".
func (v AttributeValue) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		return strings.Join(v.List, ", ")
	default:
		return v.Str
	}
}

// IsEmpty reports whether the value carries no content: an empty or
// whitespace-only string, or a list without items.
func (v AttributeValue) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindList:
		return len(v.List) == 0
	default:
		return false
	}
}

// Interface returns the value as a plain Go value (string, float64, bool
// or []string).
func (v AttributeValue) Interface() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		return append([]string{}, v.List...)
	default:
		return v.Str
	}
}

// MarshalJSON encodes the value as its natural JSON type.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.Kind == KindList && v.List == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Interface())
}

// AttributeMap is an insertion-ordered mapping of frontmatter keys to
// values. The zero value is ready to use.
type AttributeMap struct {
	keys   []string
	values map[string]AttributeValue
}

// NewAttributeMap returns an empty map.
func NewAttributeMap() AttributeMap {
	return AttributeMap{values: map[string]AttributeValue{}}
}

// Set stores v under key. An existing key keeps its position.
func (m *AttributeMap) Set(key string, v AttributeValue) {
	if m.values == nil {
		m.values = map[string]AttributeValue{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m AttributeMap) Get(key string) (AttributeValue, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m AttributeMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// StringValue returns the string rendering of key, or "" when absent.
func (m AttributeMap) StringValue(key string) string {
	if v, ok := m.values[key]; ok {
		return v.String()
	}
	return ""
}

// HasValue reports whether key is present with a non-empty value.
func (m AttributeMap) HasValue(key string) bool {
	v, ok := m.values[key]
	return ok && !v.IsEmpty()
}

// Delete removes key. It reports whether the key was present.
func (m *AttributeMap) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (m AttributeMap) Keys() []string {
	return append([]string{}, m.keys...)
}

// Len returns the number of keys.
func (m AttributeMap) Len() int { return len(m.keys) }

// ToMap converts the attributes into a plain map.
func (m AttributeMap) ToMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k].Interface()
	}
	return out
}

// MarshalJSON encodes the map as a JSON object, keeping key order.
func (m AttributeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
