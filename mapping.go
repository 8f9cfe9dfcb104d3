package mapmarshal

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	j "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
	"gopkg.in/yaml.v3"
)

// Mapping is the generic keyed structure produced by Marshal and consumed by
// Unmarshal. Keys are strings and keep their insertion order. Nested objects
// are *Mapping, array-typed properties are Pairs, everything else is a scalar.
//
// A Mapping is not safe for concurrent mutation.
type Mapping struct {
	keys   []string
	values map[string]any
}

var (
	_ j.Marshaler             = (*Mapping)(nil)
	_ j.Unmarshaler           = (*Mapping)(nil)
	_ yaml.Marshaler          = (*Mapping)(nil)
	_ yaml.Unmarshaler        = (*Mapping)(nil)
	_ msgpack.CustomEncoder   = (*Mapping)(nil)
	_ msgpack.CustomDecoder   = (*Mapping)(nil)
	errMappingNotObject       = errors.New("mapmarshal: document is not an object")
	errMappingNonStringObjKey = errors.New("mapmarshal: object key is not a string")
)

// NewMapping returns an empty Mapping sized for capacity keys.
func NewMapping(capacity int) *Mapping {
	if capacity < 0 {
		capacity = 0
	}
	return &Mapping{keys: make([]string, 0, capacity), values: make(map[string]any, capacity)}
}

// MappingFromMap converts a Go map into a Mapping. Go maps carry no order, so
// keys are sorted. Nested map[string]any values are converted recursively.
func MappingFromMap(src map[string]any) *Mapping {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := NewMapping(len(keys))
	for _, k := range keys {
		v := src[k]
		if nested, ok := v.(map[string]any); ok {
			v = MappingFromMap(nested)
		}
		m.Set(k, v)
	}
	return m
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (m *Mapping) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetIfAbsent stores value only when key is not present yet. It reports
// whether the value was stored.
func (m *Mapping) SetIfAbsent(key string, value any) bool {
	if m.Has(key) {
		return false
	}
	m.Set(key, value)
	return true
}

// Delete removes key.
func (m *Mapping) Delete(key string) {
	if !m.Has(key) {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Range calls fn for each entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Merge copies the entries of other whose keys are absent from m. Keys already
// present in m are never overwritten.
func (m *Mapping) Merge(other *Mapping) {
	other.Range(func(k string, v any) bool {
		m.SetIfAbsent(k, v)
		return true
	})
}

// ToMap converts the Mapping into plain Go maps, recursively. Order is lost.
func (m *Mapping) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Mapping:
		return t.ToMap()
	case Pairs:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

func (m *Mapping) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Mapping(%d keys)", m.Len())
	}
	return string(b)
}

// ---- JSON ----

// MarshalJSON writes the entries as a JSON object in key order. A nil or
// empty Mapping is written as {}.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	var err error
	i := 0
	m.Range(func(k string, v any) bool {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		err = writeJSONMember(buf, k, v)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONMember(buf *bytes.Buffer, key string, value any) error {
	kb, err := j.Marshal(key)
	if err != nil {
		return err
	}
	vb, err := j.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(kb)
	buf.WriteByte(':')
	buf.Write(vb)
	return nil
}

// UnmarshalJSON parses a JSON object keeping member order. Nested objects
// become *Mapping, arrays []any, integral numbers int64 and other numbers
// float64.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Mapping)
	if !ok {
		return errMappingNotObject
	}
	*m = *parsed
	return nil
}

func decodeJSONValue(dec *j.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			out := NewMapping(0)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errMappingNonStringObjKey
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				out.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		case '[':
			out := make([]any, 0)
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				out = append(out, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return out, nil
		}
		return nil, fmt.Errorf("mapmarshal: unexpected delimiter %q", rune(v))
	case j.Number:
		return numberFromText(string(v))
	default:
		return v, nil
	}
}

func numberFromText(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ---- YAML ----

// MarshalYAML renders the entries as a YAML mapping node in key order.
func (m *Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	m.Range(func(k string, v any) bool {
		var kn, vn yaml.Node
		if err = kn.Encode(k); err != nil {
			return false
		}
		if err = vn.Encode(v); err != nil {
			return false
		}
		node.Content = append(node.Content, &kn, &vn)
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// UnmarshalYAML reads a YAML mapping node keeping key order.
func (m *Mapping) UnmarshalYAML(value *yaml.Node) error {
	v, err := yamlNodeValue(value)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Mapping)
	if !ok {
		return errMappingNotObject
	}
	*m = *parsed
	return nil
}

func yamlNodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlNodeValue(n.Content[0])
	case yaml.AliasNode:
		return yamlNodeValue(n.Alias)
	case yaml.MappingNode:
		out := NewMapping(len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := yamlNodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(n.Content[i].Value, val)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := yamlNodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// ---- MessagePack ----

// EncodeMsgpack writes the entries as a MessagePack map in key order.
func (m *Mapping) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(m.Len()); err != nil {
		return err
	}
	var err error
	m.Range(func(k string, v any) bool {
		if err = enc.EncodeString(k); err != nil {
			return false
		}
		err = enc.Encode(v)
		return err == nil
	})
	return err
}

// DecodeMsgpack reads a MessagePack map keeping key order.
func (m *Mapping) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := decodeMsgpackValue(dec)
	if err != nil {
		return err
	}
	parsed, ok := v.(*Mapping)
	if !ok {
		return errMappingNotObject
	}
	*m = *parsed
	return nil
}

func decodeMsgpackValue(dec *msgpack.Decoder) (any, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		out := NewMapping(n)
		for i := 0; i < n; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			val, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			out.Set(k, val)
		}
		return out, nil
	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			val, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	default:
		return dec.DecodeInterface()
	}
}
