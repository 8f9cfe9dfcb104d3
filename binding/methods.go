package binding

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/reoring/mapmarshal"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Methods is an Accessor that reads property "x" through a GetX method and
// writes it through SetX, falling back to an exported field X. Embedded
// types contribute their promoted methods and fields, so a subtype that
// embeds its base answers for the base's properties too.
//
// Constructors are plain funcs registered per type ID. Their parameters
// receive the positional arguments converted to the parameter types;
// missing or nil arguments become zero values.
type Methods struct {
	ctors map[string]reflect.Value
}

// NewMethods returns a Methods accessor with no constructors.
func NewMethods() *Methods {
	return &Methods{ctors: map[string]reflect.Value{}}
}

// Constructor registers fn for typeID. fn must be a func returning one
// value, optionally followed by an error.
func (m *Methods) Constructor(typeID string, fn any) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("binding: constructor for %s is %T, want a func", typeID, fn)
	}
	ft := rv.Type()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return fmt.Errorf("binding: constructor for %s must return (T) or (T, error)", typeID)
	}
	if _, dup := m.ctors[typeID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, typeID)
	}
	m.ctors[typeID] = rv
	return nil
}

// MustConstructor is like Constructor but panics on error.
func (m *Methods) MustConstructor(typeID string, fn any) *Methods {
	if err := m.Constructor(typeID, fn); err != nil {
		panic(err)
	}
	return m
}

// Get implements mapmarshal.Accessor.
func (m *Methods) Get(instance any, property string) (any, error) {
	rv := reflect.ValueOf(instance)
	name := exportedName(property)
	if meth := rv.MethodByName("Get" + name); meth.IsValid() {
		mt := meth.Type()
		if mt.NumIn() != 0 || mt.NumOut() == 0 || mt.NumOut() > 2 {
			return nil, fmt.Errorf("binding: Get%s on %T has an unsupported signature", name, instance)
		}
		out := meth.Call(nil)
		if len(out) == 2 {
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, err
			}
		}
		return out[0].Interface(), nil
	}
	if f, ok := field(rv, name); ok {
		return f.Interface(), nil
	}
	return nil, fmt.Errorf("%w: %T.%s", ErrUnknownProperty, instance, property)
}

// Set implements mapmarshal.Accessor.
func (m *Methods) Set(instance any, property string, value any) error {
	rv := reflect.ValueOf(instance)
	name := exportedName(property)
	if meth := rv.MethodByName("Set" + name); meth.IsValid() {
		mt := meth.Type()
		if mt.NumIn() != 1 {
			return fmt.Errorf("binding: Set%s on %T has an unsupported signature", name, instance)
		}
		arg, err := convert(value, mt.In(0))
		if err != nil {
			return fmt.Errorf("binding: Set%s: %w", name, err)
		}
		out := meth.Call([]reflect.Value{arg})
		for _, o := range out {
			if o.Type() == errorType && !o.IsNil() {
				return o.Interface().(error)
			}
		}
		return nil
	}
	if f, ok := field(rv, name); ok && f.CanSet() {
		arg, err := convert(value, f.Type())
		if err != nil {
			return fmt.Errorf("binding: field %s: %w", name, err)
		}
		f.Set(arg)
		return nil
	}
	return fmt.Errorf("%w: %T.%s", ErrUnknownProperty, instance, property)
}

// Construct implements mapmarshal.Accessor.
func (m *Methods) Construct(typeID string, args []any) (any, error) {
	fn, ok := m.ctors[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoConstructor, typeID)
	}
	ft := fn.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}
	if len(args) > fixed && !ft.IsVariadic() {
		return nil, fmt.Errorf("binding: constructor for %s takes %d arguments, got %d", typeID, fixed, len(args))
	}
	in := make([]reflect.Value, 0, ft.NumIn())
	for i := 0; i < fixed; i++ {
		var a any
		if i < len(args) {
			a = args[i]
		}
		v, err := convert(a, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("binding: argument %d of %s: %w", i, typeID, err)
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(fixed).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := convert(args[i], elem)
			if err != nil {
				return nil, fmt.Errorf("binding: argument %d of %s: %w", i, typeID, err)
			}
			in = append(in, v)
		}
	}
	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func exportedName(property string) string {
	r, size := utf8.DecodeRuneInString(property)
	if r == utf8.RuneError {
		return property
	}
	return string(unicode.ToUpper(r)) + property[size:]
}

// field finds an exported struct field, looking through pointers.
func field(rv reflect.Value, name string) (reflect.Value, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	sf, ok := rv.Type().FieldByName(name)
	if !ok || !sf.IsExported() {
		return reflect.Value{}, false
	}
	f, err := rv.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	return f, true
}

// convert adapts a value produced by the marshaller to a Go parameter type.
// nil becomes the zero value. Numbers convert between numeric kinds only, so
// an int never turns into a one-rune string. Pairs and *Mapping fill maps
// and slices element by element.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	switch src := v.(type) {
	case mapmarshal.Pairs:
		return convertPairs(src, t)
	case *mapmarshal.Mapping:
		if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(t, src.Len())
			var err error
			src.Range(func(k string, val any) bool {
				var ev reflect.Value
				if ev, err = convert(val, t.Elem()); err != nil {
					return false
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
				return true
			})
			return out, err
		}
	}
	if t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p, nil
	}
	if compatibleKinds(rv.Kind(), t.Kind()) && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

func convertPairs(p mapmarshal.Pairs, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Map:
		out := reflect.MakeMapWithSize(t, len(p))
		for _, e := range p {
			k, err := convert(e.Key, t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			v, err := convert(e.Value, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(k, v)
		}
		return out, nil
	case reflect.Slice:
		out := reflect.MakeSlice(t, 0, len(p))
		for _, e := range p {
			v, err := convert(e.Value, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", p, t)
}

func compatibleKinds(from, to reflect.Kind) bool {
	numeric := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	switch {
	case numeric(from) && numeric(to):
		return true
	case from == to:
		return true
	}
	return false
}
