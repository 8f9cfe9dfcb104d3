// Package mapmarshal converts object graphs to ordered generic mappings and
// back, driven by a declarative schema registry instead of struct tags.
//
// - A Registry maps references to entries: ordered properties with output
// names and conversion types, optional constructor arguments, and an
// optional discriminator selecting a more specific entry at run time.
// - Objects are reached only through an Accessor, so the marshaller never
// depends on the Go layout of the entities (see the binding package).
// - Output is a *Mapping that keeps key order and encodes to JSON, YAML and
// MessagePack (see the codec package).
// - Errors are *Error values carrying a code, the reference and a JSON
// Pointer to the failing key.
//
// Typical usage:
//
//	reg, err := schemaconf.Load(schemaYAML)
//	m, err := mapmarshal.New(reg, binding.NewMethods().MustConstructor("Point", NewPoint))
//	out, err := m.Marshal(point, "Point")
//	d, err := m.UnmarshalWithMeta(out, "Point")
//
// A Marshaller is safe for concurrent use once built.
package mapmarshal
