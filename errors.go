package mapmarshal

import (
	"errors"
	"strings"

	"github.com/reoring/mapmarshal/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeSchemaNotFound     = "schema_not_found"
	CodeUnknownType        = "unknown_type"
	CodeUnknownComplexType = "unknown_complex_type"
	CodeInvalidInput       = "invalid_input"
	CodeAccessorInvocation = "accessor_invocation"
	CodeConstruction       = "construction"
	CodeCoercion           = "coercion"
	CodeDepthExceeded      = "depth_exceeded"
	CodeDocumentEncode     = "document_encode"
	CodeDocumentDecode     = "document_decode"
	CodeInvalidSchema      = "invalid_schema"
)

// Sentinels for errors.Is. They match any *Error carrying the same Code.
var (
	ErrSchemaNotFound     = &Error{Code: CodeSchemaNotFound}
	ErrUnknownType        = &Error{Code: CodeUnknownType}
	ErrUnknownComplexType = &Error{Code: CodeUnknownComplexType}
	ErrInvalidInput       = &Error{Code: CodeInvalidInput}
	ErrAccessorInvocation = &Error{Code: CodeAccessorInvocation}
	ErrConstruction       = &Error{Code: CodeConstruction}
	ErrCoercion           = &Error{Code: CodeCoercion}
	ErrDepthExceeded      = &Error{Code: CodeDepthExceeded}
	ErrDocumentEncode     = &Error{Code: CodeDocumentEncode}
	ErrDocumentDecode     = &Error{Code: CodeDocumentDecode}
	ErrInvalidSchema      = &Error{Code: CodeInvalidSchema}
)

// Error is the single error type returned by Marshal and Unmarshal.
type Error struct {
	Code     string // One of the codes listed above.
	Ref      string // Schema reference being processed, when known.
	Property string // Internal property or accessor name, when relevant.
	Path     string // JSON Pointer of output names from the root mapping.
	Message  string // Optional detail; the translated code message is used when empty.
	Cause    error  // Optional: underlying error.
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString("mapmarshal: ")
	msg := e.Message
	if msg == "" {
		msg = i18n.T(e.Code, nil)
	}
	b.WriteString(msg)
	if e.Property != "" {
		b.WriteString(" (property ")
		b.WriteString(e.Property)
		b.WriteString(")")
	}
	if e.Ref != "" {
		b.WriteString(" for ")
		b.WriteString(e.Ref)
	}
	if e.Path != "" && e.Path != "/" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches sentinels by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// AsError extracts an *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func errSchemaNotFound(ref string) error {
	return &Error{Code: CodeSchemaNotFound, Ref: ref, Message: i18n.T(CodeSchemaNotFound, map[string]string{"ref": ref})}
}

func errUnknownType(tag Primitive) error {
	return &Error{Code: CodeUnknownType, Message: i18n.T(CodeUnknownType, map[string]string{"type": string(tag)})}
}

func errUnknownComplexType(kind Kind) error {
	return &Error{Code: CodeUnknownComplexType, Message: i18n.T(CodeUnknownComplexType, map[string]string{"type": string(kind)})}
}

// withContext fills Ref and Path on e when they are still empty so the
// innermost location wins as errors bubble up.
func withContext(err error, ref, path string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	if e.Ref == "" {
		e.Ref = ref
	}
	if e.Path == "" {
		e.Path = path
	}
	return e
}

func errInvalidSchema(ref, detail string) error {
	return &Error{Code: CodeInvalidSchema, Ref: ref, Message: i18n.T(CodeInvalidSchema, map[string]string{"detail": detail})}
}

func errAccessor(op, ref, property, path string, cause error) error {
	return &Error{
		Code:     CodeAccessorInvocation,
		Ref:      ref,
		Property: property,
		Path:     pathOrRoot(path),
		Message:  i18n.T(CodeAccessorInvocation, map[string]string{"accessor": accessorName(op, property)}),
		Cause:    cause,
	}
}

// accessorName renders get/set plus the capitalised property, e.g. getLinkId.
func accessorName(op, property string) string {
	if property == "" {
		return op
	}
	return op + strings.ToUpper(property[:1]) + property[1:]
}
