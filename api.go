package mapmarshal

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/reoring/mapmarshal/codec"
)

// DefaultMaxDepth bounds the nesting of ref, json and discriminator chains.
const DefaultMaxDepth = 128

var (
	// ErrNilRegistry is returned by New when no registry is supplied.
	ErrNilRegistry = errors.New("mapmarshal: registry is nil")
	// ErrNilAccessor is returned by New when no accessor is supplied.
	ErrNilAccessor = errors.New("mapmarshal: accessor is nil")
)

// Marshaller converts entities to Mappings and back according to a
// Registry. It holds no per-call state and is safe for concurrent use.
type Marshaller struct {
	registry  *Registry
	accessor  Accessor
	logger    *zap.Logger
	maxDepth  int
	document  codec.Document
	onUnknown func(UnknownProperty)
}

// Option configures a Marshaller.
type Option func(*Marshaller)

// WithLogger sets the logger used for debug tracing. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(m *Marshaller) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxDepth bounds recursion through nested entries. n <= 0 disables the
// bound, which lets a self-referential schema recurse without limit.
func WithMaxDepth(n int) Option {
	return func(m *Marshaller) { m.maxDepth = n }
}

// WithDocumentCodec selects the encoding of embedded documents.
// The default is codec.JSON().
func WithDocumentCodec(c codec.Document) Option {
	return func(m *Marshaller) {
		if c != nil {
			m.document = c
		}
	}
}

// WithUnknownHandler registers a callback invoked for every input key that no
// entry declares. It runs in addition to the collection in Decoded.Unknown.
func WithUnknownHandler(fn func(UnknownProperty)) Option {
	return func(m *Marshaller) { m.onUnknown = fn }
}

// New returns a Marshaller over reg that reads and writes entities through acc.
func New(reg *Registry, acc Accessor, opts ...Option) (*Marshaller, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if acc == nil {
		return nil, ErrNilAccessor
	}
	m := &Marshaller{
		registry: reg,
		accessor: acc,
		logger:   zap.NewNop(),
		maxDepth: DefaultMaxDepth,
		document: codec.JSON(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(reg *Registry, acc Accessor, opts ...Option) *Marshaller {
	m, err := New(reg, acc, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Registry returns the registry the Marshaller was built with.
func (m *Marshaller) Registry() *Registry { return m.registry }

// Marshal converts entity into a Mapping using the entry registered under ref.
// Properties whose converted value is nil are omitted. When the entry has a
// discriminator, its tag is always written and, if the tag selects a more
// specific entry, that entry's output is merged in without overwriting keys
// already present.
func (m *Marshaller) Marshal(entity any, ref string) (*Mapping, error) {
	w := m.newWalker()
	return w.marshalObject(entity, ref, "")
}

// Unmarshal builds an entity from data (a *Mapping or map[string]any) using
// the entry registered under ref. Keys no entry declares are ignored; use
// UnmarshalWithMeta to retrieve them.
func (m *Marshaller) Unmarshal(data any, ref string) (any, error) {
	d, err := m.UnmarshalWithMeta(data, ref)
	return d.Value, err
}

// UnmarshalWithMeta is Unmarshal that also reports the unknown keys it met.
func (m *Marshaller) UnmarshalWithMeta(data any, ref string) (Decoded, error) {
	w := m.newWalker()
	v, err := w.unmarshalObject(data, ref, "")
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Value: v, Unknown: w.unknown}, nil
}

// UnmarshalAs is Unmarshal with the result asserted to T.
func UnmarshalAs[T any](m *Marshaller, data any, ref string) (T, error) {
	var zero T
	v, err := m.Unmarshal(data, ref)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, &Error{Code: CodeInvalidInput, Ref: ref, Path: "/", Message: fmt.Sprintf("unmarshalled %T is not %T", v, zero)}
	}
	return out, nil
}

// MarshalDocument marshals entity and encodes the result with the
// configured document codec.
func (m *Marshaller) MarshalDocument(entity any, ref string) ([]byte, error) {
	out, err := m.Marshal(entity, ref)
	if err != nil {
		return nil, err
	}
	b, err := m.document.Marshal(out)
	if err != nil {
		return nil, &Error{Code: CodeDocumentEncode, Ref: ref, Path: "/", Cause: err}
	}
	return b, nil
}

// UnmarshalDocument decodes data with the configured document codec and
// unmarshals the resulting Mapping.
func (m *Marshaller) UnmarshalDocument(data []byte, ref string) (Decoded, error) {
	in := NewMapping(0)
	if err := m.document.Unmarshal(data, in); err != nil {
		return Decoded{}, &Error{Code: CodeDocumentDecode, Ref: ref, Path: "/", Cause: err}
	}
	return m.UnmarshalWithMeta(in, ref)
}
