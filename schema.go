package mapmarshal

import "strings"

// Primitive names a scalar type understood by Coerce.
type Primitive string

const (
	PrimitiveString Primitive = "string"
	PrimitiveInt    Primitive = "int"
	PrimitiveBool   Primitive = "bool"
	PrimitiveFloat  Primitive = "float"
)

// Kind discriminates the variants of TypeSpec.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindRef       Kind = "ref"
	KindJSON      Kind = "json"
	KindArray     Kind = "array"
)

// TypeSpec describes how a single value is converted. It is a tagged union:
// Kind selects which of the remaining fields is meaningful.
//
//	KindPrimitive -> Primitive
//	KindRef       -> Ref
//	KindJSON      -> Inner
//	KindArray     -> Key, Value
//
// Use the constructors below rather than building the struct by hand.
type TypeSpec struct {
	Kind      Kind
	Primitive Primitive
	Ref       string
	Inner     *TypeSpec
	Key       *TypeSpec
	Value     *TypeSpec
}

// String is the "string" primitive.
func String() TypeSpec { return PrimitiveOf(PrimitiveString) }

// Int is the "int" primitive.
func Int() TypeSpec { return PrimitiveOf(PrimitiveInt) }

// Bool is the "bool" primitive.
func Bool() TypeSpec { return PrimitiveOf(PrimitiveBool) }

// Float is the "float" primitive.
func Float() TypeSpec { return PrimitiveOf(PrimitiveFloat) }

// PrimitiveOf returns a primitive spec for an arbitrary tag. Tags other than
// string/int/bool/float are accepted here and rejected by Coerce.
func PrimitiveOf(p Primitive) TypeSpec { return TypeSpec{Kind: KindPrimitive, Primitive: p} }

// Ref refers to another registry entry.
func Ref(ref string) TypeSpec { return TypeSpec{Kind: KindRef, Ref: ref} }

// JSON embeds the inner value as a self-contained document.
func JSON(inner TypeSpec) TypeSpec { return TypeSpec{Kind: KindJSON, Inner: &inner} }

// Array is an ordered key/value collection whose keys and values are
// converted independently.
func Array(key, value TypeSpec) TypeSpec {
	return TypeSpec{Kind: KindArray, Key: &key, Value: &value}
}

// IsPrimitive reports whether t is a scalar type.
func (t TypeSpec) IsPrimitive() bool { return t.Kind == KindPrimitive }

func (t TypeSpec) String() string {
	switch t.Kind {
	case KindPrimitive:
		return string(t.Primitive)
	case KindRef:
		return "ref(" + t.Ref + ")"
	case KindJSON:
		if t.Inner == nil {
			return "json(?)"
		}
		return "json(" + t.Inner.String() + ")"
	case KindArray:
		b := &strings.Builder{}
		b.WriteString("array(")
		if t.Key != nil {
			b.WriteString(t.Key.String())
		} else {
			b.WriteString("?")
		}
		b.WriteString(", ")
		if t.Value != nil {
			b.WriteString(t.Value.String())
		} else {
			b.WriteString("?")
		}
		b.WriteString(")")
		return b.String()
	default:
		return string(t.Kind)
	}
}

// Property configures one internal property of an entity.
type Property struct {
	Name       string   // Internal name handed to the Accessor.
	OutputName string   // Key in the generic mapping.
	Type       TypeSpec // Conversion applied in both directions.
}

// Discriminator selects a more specific entry at run time from a tag value.
type Discriminator struct {
	Property   string            // Internal property holding the tag.
	OutputName string            // Key the tag is written to and read from.
	Values     map[string]string // Tag literal -> schema reference.
}

// Entry is the schema of one type reference.
type Entry struct {
	TypeID          string
	Properties      []Property // Order is significant.
	Discriminator   *Discriminator
	ConstructorArgs []string // Property names bound positionally at construction.
}

// Property returns the named property.
func (e *Entry) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}
