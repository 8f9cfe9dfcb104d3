package mapmarshal

// UnknownProperty is an input key that no entry along the discriminator chain
// of an object declares. Unknown keys never fail an unmarshal.
type UnknownProperty struct {
	Path  string // JSON Pointer of the object holding the key.
	Ref   string // Entry the object was unmarshalled against.
	Key   string
	Value any
}

// Decoded carries the unmarshalled entity along with the unknown keys met,
// in encounter order across all nesting levels.
type Decoded struct {
	Value   any
	Unknown []UnknownProperty
}

// UnknownAt returns the unknown keys collected for the object at path ("/"
// for the root) as a Mapping.
func (d Decoded) UnknownAt(path string) *Mapping {
	out := NewMapping(0)
	for _, u := range d.Unknown {
		if u.Path == path {
			out.Set(u.Key, u.Value)
		}
	}
	return out
}
