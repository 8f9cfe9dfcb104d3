package mapmarshal

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	j "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Pair is one entry of an ordered collection.
type Pair struct {
	Key   any
	Value any
}

// Pairs is the ordered key/value collection produced for array-typed
// properties. Unlike Mapping its keys may be of any comparable type.
type Pairs []Pair

var (
	_ j.Marshaler           = Pairs(nil)
	_ yaml.Marshaler        = Pairs(nil)
	_ msgpack.CustomEncoder = Pairs(nil)
)

// Get returns the value stored under key.
func (p Pairs) Get(key any) (any, bool) {
	if i := p.index(key); i >= 0 {
		return p[i].Value, true
	}
	return nil, false
}

// Keys returns the keys in order.
func (p Pairs) Keys() []any {
	out := make([]any, len(p))
	for i, e := range p {
		out[i] = e.Key
	}
	return out
}

// Put stores value under key, replacing an existing entry in place or
// appending a new one.
func (p Pairs) Put(key, value any) Pairs {
	if i := p.index(key); i >= 0 {
		p[i].Value = value
		return p
	}
	return append(p, Pair{Key: key, Value: value})
}

func (p Pairs) index(key any) int {
	if key != nil && !reflect.TypeOf(key).Comparable() {
		return -1
	}
	for i, e := range p {
		if e.Key == nil || reflect.TypeOf(e.Key).Comparable() {
			if e.Key == key {
				return i
			}
		}
	}
	return -1
}

// ToMap converts the entries into a Go map keyed by the textual form of each
// key. Order is lost.
func (p Pairs) ToMap() map[string]any {
	out := make(map[string]any, len(p))
	for _, e := range p {
		out[keyText(e.Key)] = plainValue(e.Value)
	}
	return out
}

func keyText(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	if s, err := Coerce(k, PrimitiveString); err == nil && s != nil {
		return s.(string)
	}
	return fmt.Sprint(k)
}

// MarshalJSON writes the entries as a JSON object; non-string keys use their
// canonical textual form.
func (p Pairs) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONMember(buf, keyText(e.Key), e.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the entries as a YAML mapping node in order.
func (p Pairs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range p {
		var kn, vn yaml.Node
		if err := kn.Encode(e.Key); err != nil {
			return nil, err
		}
		if err := vn.Encode(e.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &kn, &vn)
	}
	return node, nil
}

// EncodeMsgpack writes the entries as a MessagePack map in order.
func (p Pairs) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(p)); err != nil {
		return err
	}
	for _, e := range p {
		if err := enc.Encode(e.Key); err != nil {
			return err
		}
		if err := enc.Encode(e.Value); err != nil {
			return err
		}
	}
	return nil
}

// entriesOf enumerates an ordered collection. Go maps are visited in sorted
// key order since they carry none of their own.
func entriesOf(v any) (Pairs, bool) {
	switch t := v.(type) {
	case Pairs:
		return t, true
	case []Pair:
		return Pairs(t), true
	case *Mapping:
		out := make(Pairs, 0, t.Len())
		t.Range(func(k string, val any) bool {
			out = append(out, Pair{Key: k, Value: val})
			return true
		})
		return out, true
	case map[string]any:
		return entriesOf(MappingFromMap(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(Pairs, rv.Len())
		for i := range out {
			out[i] = Pair{Key: i, Value: rv.Index(i).Interface()}
		}
		return out, true
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(a, b int) bool { return lessKey(keys[a], keys[b]) })
		out := make(Pairs, len(keys))
		for i, k := range keys {
			out[i] = Pair{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
		}
		return out, true
	default:
		return nil, false
	}
}

func lessKey(a, b reflect.Value) bool {
	switch {
	case a.CanInt() && b.CanInt():
		return a.Int() < b.Int()
	case a.CanUint() && b.CanUint():
		return a.Uint() < b.Uint()
	case a.CanFloat() && b.CanFloat():
		return a.Float() < b.Float()
	}
	return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
}
