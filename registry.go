package mapmarshal

import (
	"fmt"
	"sort"
)

// Registry is the immutable table of schema entries keyed by reference.
// It is safe for concurrent use.
type Registry struct {
	entries map[string]*Entry
	refs    []string
}

// NewRegistry copies entries into a Registry after checking each entry's own
// shape: property names are unique, constructor arguments name declared
// properties, and a discriminator names its property and output key.
// References to other entries are not resolved here; an unknown reference
// fails when it is first used.
func NewRegistry(entries map[string]Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]*Entry, len(entries)), refs: make([]string, 0, len(entries))}
	for ref, e := range entries {
		if ref == "" {
			return nil, errInvalidSchema(ref, "empty reference")
		}
		if err := checkEntry(ref, &e); err != nil {
			return nil, err
		}
		r.entries[ref] = cloneEntry(e)
		r.refs = append(r.refs, ref)
	}
	sort.Strings(r.refs)
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(entries map[string]Entry) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns a copy of the entry registered under ref.
func (r *Registry) Lookup(ref string) (*Entry, error) {
	e, err := r.entry(ref)
	if err != nil {
		return nil, err
	}
	return cloneEntry(*e), nil
}

// entry returns the shared entry; the walkers only read it.
func (r *Registry) entry(ref string) (*Entry, error) {
	e, ok := r.entries[ref]
	if !ok {
		return nil, errSchemaNotFound(ref)
	}
	return e, nil
}

// Refs lists the registered references in sorted order.
func (r *Registry) Refs() []string {
	out := make([]string, len(r.refs))
	copy(out, r.refs)
	return out
}

func checkEntry(ref string, e *Entry) error {
	seen := make(map[string]struct{}, len(e.Properties))
	for _, p := range e.Properties {
		if p.Name == "" {
			return errInvalidSchema(ref, "property without a name")
		}
		if _, dup := seen[p.Name]; dup {
			return errInvalidSchema(ref, fmt.Sprintf("duplicate property %q", p.Name))
		}
		seen[p.Name] = struct{}{}
	}
	for _, arg := range e.ConstructorArgs {
		if _, ok := seen[arg]; !ok {
			return errInvalidSchema(ref, fmt.Sprintf("constructor argument %q is not a declared property", arg))
		}
	}
	if d := e.Discriminator; d != nil {
		if d.Property == "" || d.OutputName == "" {
			return errInvalidSchema(ref, "discriminator requires a property and an output name")
		}
	}
	return nil
}

func cloneEntry(e Entry) *Entry {
	out := &Entry{TypeID: e.TypeID}
	out.Properties = make([]Property, len(e.Properties))
	copy(out.Properties, e.Properties)
	for i, p := range out.Properties {
		if p.OutputName == "" {
			out.Properties[i].OutputName = p.Name
		}
		out.Properties[i].Type = cloneSpec(p.Type)
	}
	out.ConstructorArgs = make([]string, len(e.ConstructorArgs))
	copy(out.ConstructorArgs, e.ConstructorArgs)
	if d := e.Discriminator; d != nil {
		values := make(map[string]string, len(d.Values))
		for k, v := range d.Values {
			values[k] = v
		}
		out.Discriminator = &Discriminator{Property: d.Property, OutputName: d.OutputName, Values: values}
	}
	return out
}

func cloneSpec(t TypeSpec) TypeSpec {
	out := t
	if t.Inner != nil {
		in := cloneSpec(*t.Inner)
		out.Inner = &in
	}
	if t.Key != nil {
		k := cloneSpec(*t.Key)
		out.Key = &k
	}
	if t.Value != nil {
		v := cloneSpec(*t.Value)
		out.Value = &v
	}
	return out
}

// CheckRefs resolves every reference the registry mentions (ref and json
// targets, array key and value types, discriminator values) and reports the
// dangling ones, sorted. NewRegistry leaves this to first use.
func (r *Registry) CheckRefs() []string {
	missing := map[string]struct{}{}
	var visit func(TypeSpec)
	visit = func(t TypeSpec) {
		switch t.Kind {
		case KindRef:
			if _, ok := r.entries[t.Ref]; !ok {
				missing[t.Ref] = struct{}{}
			}
		case KindJSON:
			if t.Inner != nil {
				visit(*t.Inner)
			}
		case KindArray:
			if t.Key != nil {
				visit(*t.Key)
			}
			if t.Value != nil {
				visit(*t.Value)
			}
		}
	}
	for _, ref := range r.refs {
		e := r.entries[ref]
		for _, p := range e.Properties {
			visit(p.Type)
		}
		if e.Discriminator != nil {
			for _, target := range e.Discriminator.Values {
				visit(Ref(target))
			}
		}
	}
	out := make([]string, 0, len(missing))
	for ref := range missing {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}
