package mapmarshal

import (
	"fmt"
)

// marshalValue converts an entity-side value to its mapping form.
func (w *walker) marshalValue(v any, t TypeSpec, path string) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	switch t.Kind {
	case KindPrimitive:
		return Coerce(v, t.Primitive)
	case KindRef:
		out, err := w.marshalObject(v, t.Ref, path)
		if err != nil {
			return nil, err
		}
		return out, nil
	case KindJSON:
		if t.Inner == nil {
			return nil, errUnknownComplexType(t.Kind)
		}
		inner, err := w.marshalValue(v, *t.Inner, path)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			inner = NewMapping(0)
		}
		doc, err := w.m.document.Marshal(inner)
		if err != nil {
			return nil, &Error{Code: CodeDocumentEncode, Path: pathOrRoot(path), Cause: err}
		}
		return string(doc), nil
	case KindArray:
		if t.Key == nil || t.Value == nil {
			return nil, errUnknownComplexType(t.Kind)
		}
		return w.convertEntries(v, t, path, w.marshalValue)
	}
	return nil, errUnknownComplexType(t.Kind)
}

// unmarshalValue converts a mapping-side value to its entity form.
func (w *walker) unmarshalValue(v any, t TypeSpec, path string) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	switch t.Kind {
	case KindPrimitive:
		return Coerce(v, t.Primitive)
	case KindRef:
		return w.unmarshalObject(v, t.Ref, path)
	case KindJSON:
		if t.Inner == nil {
			return nil, errUnknownComplexType(t.Kind)
		}
		parsed, err := w.parseDocument(v, *t.Inner, path)
		if err != nil {
			return nil, err
		}
		return w.unmarshalValue(parsed, *t.Inner, path)
	case KindArray:
		if t.Key == nil || t.Value == nil {
			return nil, errUnknownComplexType(t.Kind)
		}
		return w.convertEntries(v, t, path, w.unmarshalValue)
	}
	return nil, errUnknownComplexType(t.Kind)
}

// parseDocument decodes an embedded document. Ref and array inner types are
// parsed into an ordered Mapping; anything else (primitives, a nested json
// document) into a plain value.
func (w *walker) parseDocument(v any, inner TypeSpec, path string) (any, error) {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	default:
		return nil, &Error{Code: CodeInvalidInput, Path: pathOrRoot(path), Message: fmt.Sprintf("embedded document must be text, got %T", v)}
	}
	if inner.Kind != KindRef && inner.Kind != KindArray {
		var out any
		if err := w.m.document.Unmarshal(data, &out); err != nil {
			return nil, &Error{Code: CodeDocumentDecode, Path: pathOrRoot(path), Cause: err}
		}
		return out, nil
	}
	out := NewMapping(0)
	if err := w.m.document.Unmarshal(data, out); err != nil {
		return nil, &Error{Code: CodeDocumentDecode, Path: pathOrRoot(path), Cause: err}
	}
	return out, nil
}

// convertEntries converts each key and value of an ordered collection
// independently, keeping source order.
func (w *walker) convertEntries(v any, t TypeSpec, path string, conv func(any, TypeSpec, string) (any, error)) (Pairs, error) {
	entries, ok := entriesOf(v)
	if !ok {
		return nil, &Error{Code: CodeInvalidInput, Path: pathOrRoot(path), Message: fmt.Sprintf("expected a keyed collection, got %T", v)}
	}
	out := make(Pairs, 0, len(entries))
	for _, e := range entries {
		at := joinPath(path, keyText(e.Key))
		k, err := conv(e.Key, *t.Key, at)
		if err != nil {
			return nil, withContext(err, "", at)
		}
		val, err := conv(e.Value, *t.Value, at)
		if err != nil {
			return nil, withContext(err, "", at)
		}
		out = out.Put(k, val)
	}
	return out, nil
}
