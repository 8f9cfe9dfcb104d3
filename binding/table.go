// Package binding provides mapmarshal.Accessor implementations.
//
// Table dispatches through accessor tables built up front, one per Go type,
// so no name resolution happens while marshalling. Methods resolves GetX/SetX
// methods (or exported fields) by reflection and suits types that were not
// written with a table in mind.
package binding

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnknownType is returned for instances or type IDs with no binding.
	ErrUnknownType = errors.New("binding: unknown type")
	// ErrUnknownProperty is returned when a type has no accessor for a property.
	ErrUnknownProperty = errors.New("binding: unknown property")
	// ErrNoConstructor is returned when a type ID cannot be constructed.
	ErrNoConstructor = errors.New("binding: no constructor")
	// ErrDuplicate is returned when a type or type ID is bound twice.
	ErrDuplicate = errors.New("binding: duplicate registration")
)

// Type is the accessor table of one struct type, addressed through *T.
type Type[T any] struct {
	New     func(args []any) (*T, error)
	Getters map[string]func(*T) any
	Setters map[string]func(*T, any) error
}

// Inherit lifts the accessors of an embedded type onto T. The returned
// table has fresh maps and no constructor, so callers can add T's own
// accessors and New.
func Inherit[T, B any](base Type[B], embedded func(*T) *B) Type[T] {
	out := Type[T]{
		Getters: make(map[string]func(*T) any, len(base.Getters)),
		Setters: make(map[string]func(*T, any) error, len(base.Setters)),
	}
	for name, get := range base.Getters {
		get := get
		out.Getters[name] = func(t *T) any { return get(embedded(t)) }
	}
	for name, set := range base.Setters {
		set := set
		out.Setters[name] = func(t *T, v any) error { return set(embedded(t), v) }
	}
	return out
}

type tableEntry struct {
	typeID    string
	construct func([]any) (any, error)
	get       map[string]func(any) any
	set       map[string]func(any, any) error
}

// Table is an Accessor over registered accessor tables. Register every type
// before handing the Table to a Marshaller; it is read-only afterwards.
type Table struct {
	byID   map[string]*tableEntry
	byType map[reflect.Type]*tableEntry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{byID: map[string]*tableEntry{}, byType: map[reflect.Type]*tableEntry{}}
}

// Register binds *T to typeID.
func Register[T any](tbl *Table, typeID string, b Type[T]) error {
	rt := reflect.TypeOf((*T)(nil))
	if _, dup := tbl.byType[rt]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, rt)
	}
	if _, dup := tbl.byID[typeID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, typeID)
	}
	e := &tableEntry{
		typeID: typeID,
		get:    make(map[string]func(any) any, len(b.Getters)),
		set:    make(map[string]func(any, any) error, len(b.Setters)),
	}
	for name, get := range b.Getters {
		get := get
		e.get[name] = func(inst any) any { return get(inst.(*T)) }
	}
	for name, set := range b.Setters {
		set := set
		e.set[name] = func(inst, v any) error { return set(inst.(*T), v) }
	}
	if b.New != nil {
		e.construct = func(args []any) (any, error) {
			v, err := b.New(args)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	tbl.byType[rt] = e
	tbl.byID[typeID] = e
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](tbl *Table, typeID string, b Type[T]) {
	if err := Register(tbl, typeID, b); err != nil {
		panic(err)
	}
}

func (tbl *Table) entryFor(instance any) (*tableEntry, error) {
	e, ok := tbl.byType[reflect.TypeOf(instance)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, instance)
	}
	return e, nil
}

// Get implements mapmarshal.Accessor.
func (tbl *Table) Get(instance any, property string) (any, error) {
	e, err := tbl.entryFor(instance)
	if err != nil {
		return nil, err
	}
	get, ok := e.get[property]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, e.typeID, property)
	}
	return get(instance), nil
}

// Set implements mapmarshal.Accessor.
func (tbl *Table) Set(instance any, property string, value any) error {
	e, err := tbl.entryFor(instance)
	if err != nil {
		return err
	}
	set, ok := e.set[property]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, e.typeID, property)
	}
	return set(instance, value)
}

// Construct implements mapmarshal.Accessor.
func (tbl *Table) Construct(typeID string, args []any) (any, error) {
	e, ok := tbl.byID[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeID)
	}
	if e.construct == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConstructor, typeID)
	}
	return e.construct(args)
}

// Arg returns args[i] asserted to V, or V's zero value when the argument is
// absent or nil. It is meant for Type.New implementations.
func Arg[V any](args []any, i int) (V, error) {
	var zero V
	if i >= len(args) || args[i] == nil {
		return zero, nil
	}
	v, ok := args[i].(V)
	if !ok {
		return zero, fmt.Errorf("binding: argument %d is %T, want %T", i, args[i], zero)
	}
	return v, nil
}

// Value asserts a setter value to V; nil gives V's zero value.
func Value[V any](v any) (V, error) {
	return Arg[V]([]any{v}, 0)
}
