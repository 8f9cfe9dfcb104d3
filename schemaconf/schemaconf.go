// Package schemaconf loads a mapmarshal Registry from a YAML or JSON
// configuration document.
//
// The document maps each schema reference to its entry:
//
//	Item:
//	  type: Item
//	  properties:
//	    linkId: {name: link_id, type: string}
//	    layout: {type: [ref, Layout]}
//	    tags:   {type: [array, {key: string, value: int}]}
//	    font:   {type: [json, Font]}
//	  constructorArgs: [linkId]
//	  discriminator:
//	    property: type
//	    name: type
//	    values: {text: TextItem, image: ImageItem}
//
// Property order follows the document. A property's name defaults to its key.
// A type is either a primitive tag or a two element sequence [kind, config]:
// ref and json take a schema reference (json also accepts a nested type),
// array takes a mapping with key and value types.
package schemaconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/mapmarshal"
)

// SyntaxError reports a malformed configuration node with its position.
type SyntaxError struct {
	Ref    string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("schemaconf: %d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("schemaconf: %s at %d:%d: %s", e.Ref, e.Line, e.Column, e.Msg)
}

// Unwrap lets errors.Is match mapmarshal.ErrInvalidSchema.
func (e *SyntaxError) Unwrap() error {
	return &mapmarshal.Error{Code: mapmarshal.CodeInvalidSchema, Ref: e.Ref, Message: e.Msg}
}

// DuplicateKeyError reports a key defined twice in the same mapping, with
// both positions.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("schemaconf: duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// ErrEmpty is returned for a document with no entries.
var ErrEmpty = errors.New("schemaconf: empty configuration")

// Load parses a YAML (or JSON) configuration and builds a Registry.
func Load(data []byte) (*mapmarshal.Registry, error) {
	entries, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return mapmarshal.NewRegistry(entries)
}

// LoadYAML is Load.
func LoadYAML(data []byte) (*mapmarshal.Registry, error) { return Load(data) }

// LoadJSON checks that data is well-formed JSON before loading it, so JSON
// syntax errors are reported as such rather than as YAML errors.
func LoadJSON(data []byte) (*mapmarshal.Registry, error) {
	var v any
	if err := j.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("schemaconf: %w", err)
	}
	return Load(data)
}

// LoadFile reads path and loads it as JSON when the extension is .json and
// as YAML otherwise.
func LoadFile(path string) (*mapmarshal.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(data)
	}
	return Load(data)
}

// Parse decodes the configuration into entries without building a Registry.
func Parse(data []byte) (map[string]mapmarshal.Entry, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("schemaconf: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, ErrEmpty
		}
		doc = doc.Content[0]
	}
	doc = resolve(doc)
	if doc.Kind != yaml.MappingNode {
		return nil, syntaxErr("", doc, "configuration must be a mapping of references to entries")
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmpty
	}
	pairs, err := members(doc)
	if err != nil {
		return nil, err
	}
	out := make(map[string]mapmarshal.Entry, len(pairs))
	for _, p := range pairs {
		e, err := parseEntry(p.key.Value, p.value)
		if err != nil {
			return nil, err
		}
		out[p.key.Value] = e
	}
	return out, nil
}

type member struct {
	key, value *yaml.Node
}

// members lists the key/value nodes of a mapping in order and rejects
// duplicate keys.
func members(n *yaml.Node) ([]member, error) {
	first := make(map[string]*yaml.Node, len(n.Content)/2)
	out := make([]member, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		if prev, dup := first[k.Value]; dup {
			return nil, &DuplicateKeyError{Key: k.Value, FirstLine: prev.Line, FirstCol: prev.Column, Line: k.Line, Col: k.Column}
		}
		first[k.Value] = k
		out = append(out, member{key: k, value: v})
	}
	return out, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func syntaxErr(ref string, n *yaml.Node, format string, args ...any) error {
	return &SyntaxError{Ref: ref, Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

func parseEntry(ref string, n *yaml.Node) (mapmarshal.Entry, error) {
	var e mapmarshal.Entry
	if n.Kind != yaml.MappingNode {
		return e, syntaxErr(ref, n, "entry must be a mapping")
	}
	fields, err := members(n)
	if err != nil {
		return e, err
	}
	for _, f := range fields {
		switch f.key.Value {
		case "type":
			if e.TypeID, err = scalar(ref, f.value, "type"); err != nil {
				return e, err
			}
		case "properties":
			if e.Properties, err = parseProperties(ref, f.value); err != nil {
				return e, err
			}
		case "constructorArgs":
			if e.ConstructorArgs, err = scalars(ref, f.value, "constructorArgs"); err != nil {
				return e, err
			}
		case "discriminator":
			if e.Discriminator, err = parseDiscriminator(ref, f.value); err != nil {
				return e, err
			}
		default:
			return e, syntaxErr(ref, f.key, "unknown entry field %q", f.key.Value)
		}
	}
	if e.TypeID == "" {
		e.TypeID = ref
	}
	return e, nil
}

func parseProperties(ref string, n *yaml.Node) ([]mapmarshal.Property, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, syntaxErr(ref, n, "properties must be a mapping")
	}
	props, err := members(n)
	if err != nil {
		return nil, err
	}
	out := make([]mapmarshal.Property, 0, len(props))
	for _, p := range props {
		prop := mapmarshal.Property{Name: p.key.Value}
		if p.value.Kind != yaml.MappingNode {
			return nil, syntaxErr(ref, p.value, "property %q must be a mapping", prop.Name)
		}
		fields, err := members(p.value)
		if err != nil {
			return nil, err
		}
		typed := false
		for _, f := range fields {
			switch f.key.Value {
			case "name":
				if prop.OutputName, err = scalar(ref, f.value, "name"); err != nil {
					return nil, err
				}
			case "type":
				if prop.Type, err = parseType(ref, f.value); err != nil {
					return nil, err
				}
				typed = true
			default:
				return nil, syntaxErr(ref, f.key, "unknown property field %q", f.key.Value)
			}
		}
		if !typed {
			return nil, syntaxErr(ref, p.value, "property %q has no type", prop.Name)
		}
		out = append(out, prop)
	}
	return out, nil
}

func parseDiscriminator(ref string, n *yaml.Node) (*mapmarshal.Discriminator, error) {
	if n.Kind != yaml.MappingNode {
		return nil, syntaxErr(ref, n, "discriminator must be a mapping")
	}
	fields, err := members(n)
	if err != nil {
		return nil, err
	}
	d := &mapmarshal.Discriminator{Values: map[string]string{}}
	for _, f := range fields {
		switch f.key.Value {
		case "property":
			if d.Property, err = scalar(ref, f.value, "property"); err != nil {
				return nil, err
			}
		case "name":
			if d.OutputName, err = scalar(ref, f.value, "name"); err != nil {
				return nil, err
			}
		case "values":
			if f.value.Kind != yaml.MappingNode {
				return nil, syntaxErr(ref, f.value, "discriminator values must be a mapping")
			}
			values, err := members(f.value)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				target, err := scalar(ref, v.value, "discriminator value")
				if err != nil {
					return nil, err
				}
				d.Values[v.key.Value] = target
			}
		default:
			return nil, syntaxErr(ref, f.key, "unknown discriminator field %q", f.key.Value)
		}
	}
	if d.OutputName == "" {
		d.OutputName = d.Property
	}
	return d, nil
}

// parseType reads a primitive tag or a [kind, config] pair.
func parseType(ref string, n *yaml.Node) (mapmarshal.TypeSpec, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return mapmarshal.TypeSpec{}, syntaxErr(ref, n, "empty type")
		}
		return mapmarshal.PrimitiveOf(mapmarshal.Primitive(n.Value)), nil
	case yaml.SequenceNode:
	default:
		return mapmarshal.TypeSpec{}, syntaxErr(ref, n, "type must be a tag or a [kind, config] pair")
	}
	if len(n.Content) != 2 {
		return mapmarshal.TypeSpec{}, syntaxErr(ref, n, "composite type needs exactly a kind and a config")
	}
	kind, err := scalar(ref, n.Content[0], "kind")
	if err != nil {
		return mapmarshal.TypeSpec{}, err
	}
	cfg := resolve(n.Content[1])
	switch mapmarshal.Kind(kind) {
	case mapmarshal.KindRef:
		target, err := scalar(ref, cfg, "ref target")
		if err != nil {
			return mapmarshal.TypeSpec{}, err
		}
		return mapmarshal.Ref(target), nil
	case mapmarshal.KindJSON:
		if cfg.Kind == yaml.ScalarNode {
			return mapmarshal.JSON(mapmarshal.Ref(cfg.Value)), nil
		}
		inner, err := parseType(ref, cfg)
		if err != nil {
			return mapmarshal.TypeSpec{}, err
		}
		return mapmarshal.JSON(inner), nil
	case mapmarshal.KindArray:
		return parseArray(ref, cfg)
	}
	// Kept so the marshaller reports it as an unknown complex type on use.
	return mapmarshal.TypeSpec{Kind: mapmarshal.Kind(kind)}, nil
}

func parseArray(ref string, n *yaml.Node) (mapmarshal.TypeSpec, error) {
	if n.Kind != yaml.MappingNode {
		return mapmarshal.TypeSpec{}, syntaxErr(ref, n, "array config must be a mapping with key and value")
	}
	fields, err := members(n)
	if err != nil {
		return mapmarshal.TypeSpec{}, err
	}
	var key, value *mapmarshal.TypeSpec
	for _, f := range fields {
		t, err := parseType(ref, f.value)
		if err != nil {
			return mapmarshal.TypeSpec{}, err
		}
		switch f.key.Value {
		case "key":
			key = &t
		case "value":
			value = &t
		default:
			return mapmarshal.TypeSpec{}, syntaxErr(ref, f.key, "unknown array field %q", f.key.Value)
		}
	}
	if key == nil || value == nil {
		return mapmarshal.TypeSpec{}, syntaxErr(ref, n, "array config needs both key and value")
	}
	return mapmarshal.Array(*key, *value), nil
}

func scalar(ref string, n *yaml.Node, what string) (string, error) {
	if n.Kind != yaml.ScalarNode || isNull(n) {
		return "", syntaxErr(ref, n, "%s must be a scalar", what)
	}
	return n.Value, nil
}

func scalars(ref string, n *yaml.Node, what string) ([]string, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, syntaxErr(ref, n, "%s must be a sequence", what)
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		s, err := scalar(ref, resolve(c), what)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
