package mapmarshal

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/mapmarshal/i18n"
)

// Coerce converts a scalar to the given primitive. A nil value (including a
// typed nil pointer) is returned as nil before any type-specific logic runs,
// so even an unknown tag is accepted for nil.
//
//	string: canonical text (bools "true"/"false", floats in shortest form)
//	int:    integral value, fractional input truncated toward zero
//	bool:   truthiness (non-zero numbers, non-empty strings other than "0")
//	float:  float64
//
// Strings convert to numbers through their leading numeric prefix, so "42"
// gives 42, "3.9" as int gives 3 and text without digits gives 0.
func Coerce(value any, p Primitive) (any, error) {
	if isNil(value) {
		return nil, nil
	}
	switch p {
	case PrimitiveString:
		return toString(value)
	case PrimitiveInt:
		return toInt(value)
	case PrimitiveBool:
		return toBool(value)
	case PrimitiveFloat:
		return toFloat(value)
	}
	return nil, errUnknownType(p)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// indirect follows pointers; isNil has already ruled out nil ones.
func indirect(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func errCoercion(v any, p Primitive) error {
	return &Error{
		Code:    CodeCoercion,
		Message: i18n.T(CodeCoercion, map[string]string{"from": fmt.Sprintf("%T", v), "type": string(p)}),
	}
}

func toString(v any) (any, error) {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	rv := indirect(v)
	switch {
	case rv.Kind() == reflect.String:
		return rv.String(), nil
	case rv.Kind() == reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case rv.CanInt():
		return strconv.FormatInt(rv.Int(), 10), nil
	case rv.CanUint():
		return strconv.FormatUint(rv.Uint(), 10), nil
	case rv.CanFloat():
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits()), nil
	}
	return nil, errCoercion(v, PrimitiveString)
}

func toInt(v any) (any, error) {
	rv := indirect(v)
	switch {
	case rv.Kind() == reflect.String:
		return intFromText(rv.String()), nil
	case rv.Kind() == reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case rv.CanInt():
		return int(rv.Int()), nil
	case rv.CanUint():
		if u := rv.Uint(); u <= math.MaxInt {
			return int(u), nil
		}
		return math.MaxInt, nil
	case rv.CanFloat():
		return truncate(rv.Float()), nil
	}
	if b, ok := v.([]byte); ok {
		return intFromText(string(b)), nil
	}
	return nil, errCoercion(v, PrimitiveInt)
}

func toFloat(v any) (any, error) {
	rv := indirect(v)
	switch {
	case rv.Kind() == reflect.String:
		return floatFromText(rv.String()), nil
	case rv.Kind() == reflect.Bool:
		if rv.Bool() {
			return 1.0, nil
		}
		return 0.0, nil
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	case rv.CanFloat():
		return rv.Float(), nil
	}
	if b, ok := v.([]byte); ok {
		return floatFromText(string(b)), nil
	}
	return nil, errCoercion(v, PrimitiveFloat)
}

func toBool(v any) (any, error) {
	rv := indirect(v)
	switch {
	case rv.Kind() == reflect.Bool:
		return rv.Bool(), nil
	case rv.Kind() == reflect.String:
		s := rv.String()
		// "false" and its ParseBool spellings read as false, mirroring
		// toString(false); only "" and "0" are false otherwise.
		if b, err := strconv.ParseBool(s); err == nil {
			return b, nil
		}
		return s != "" && s != "0", nil
	case rv.CanInt():
		return rv.Int() != 0, nil
	case rv.CanUint():
		return rv.Uint() != 0, nil
	case rv.CanFloat():
		return rv.Float() != 0, nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0, nil
	}
	return nil, errCoercion(v, PrimitiveBool)
}

func truncate(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt
	case f <= math.MinInt64:
		return math.MinInt
	}
	return int(math.Trunc(f))
}

func intFromText(s string) int {
	p := numericPrefix(s)
	if p == "" {
		return 0
	}
	if n, err := strconv.ParseInt(p, 10, 64); err == nil {
		return int(n)
	}
	f, _ := strconv.ParseFloat(p, 64)
	return truncate(f)
}

func floatFromText(s string) float64 {
	p := numericPrefix(s)
	if p == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(p, 64)
	return f
}

// numericPrefix returns the longest leading decimal number of s (optional
// sign, digits, fraction, exponent) after skipping leading whitespace.
func numericPrefix(s string) string {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		k := i + 1
		for k < len(s) && isDigit(s[k]) {
			k++
			digits++
		}
		if digits > 0 {
			i = k
		}
	}
	if digits == 0 || i == start {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		k := i + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && isDigit(s[k]) {
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			i = k
		}
	}
	return s[:i]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
