package codec

import (
	"fmt"
)

// MarshalError reports a value the named codec could not encode.
type MarshalError struct {
	Codec string
	err   error
}

// UnmarshalError reports a document the named codec could not decode.
// Offset is the input length, so a reader can tell an empty document from
// a truncated one.
type UnmarshalError struct {
	Codec  string
	Offset int
	err    error
}

func (c named) marshalErr(err error) error {
	if err == nil {
		return nil
	}
	return MarshalError{Codec: string(c), err: err}
}

func (c named) unmarshalErr(data []byte, err error) error {
	if err == nil {
		return nil
	}
	return UnmarshalError{Codec: string(c), Offset: len(data), err: err}
}

func (e MarshalError) Unwrap() error { return e.err }

func (e MarshalError) Error() string {
	return fmt.Sprintf("%s: encode: %s", e.Codec, e.err)
}

func (e UnmarshalError) Unwrap() error { return e.err }

func (e UnmarshalError) Error() string {
	if e.Offset == 0 {
		return fmt.Sprintf("%s: decode empty document: %s", e.Codec, e.err)
	}
	return fmt.Sprintf("%s: decode %d bytes: %s", e.Codec, e.Offset, e.err)
}
