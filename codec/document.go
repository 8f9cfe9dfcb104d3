// Package codec provides the document encodings used for embedded documents
// (the json composite type) and for rendering whole mappings.
//
// Every codec encodes the mapmarshal Mapping and Pairs types through the
// Marshaler hooks they implement, so key order survives the round trip.
// An empty mapping is always written as an object, never as null or an
// empty array.
package codec

import (
	j "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Document serializes a value to a self-contained document and back.
// Implementations must be safe for concurrent use.
type Document interface {
	Marshal(data any) ([]byte, error)
	Unmarshal(data []byte, out any) error
	Name() string
}

// JSON returns the default document codec backed by goccy/go-json.
func JSON() Document { return jsonDocument{"json"} }

// YAML returns a document codec backed by gopkg.in/yaml.v3.
func YAML() Document { return yamlDocument{"yaml"} }

// MsgPack returns a binary document codec backed by vmihailenco/msgpack.
func MsgPack() Document { return msgpackDocument{"msgpack"} }

// named carries the codec name into its errors.
type named string

func (c named) Name() string { return string(c) }

type jsonDocument struct{ named }

func (d jsonDocument) Marshal(data any) ([]byte, error) {
	b, err := j.Marshal(data)
	if err != nil {
		return nil, d.marshalErr(err)
	}
	return b, nil
}

func (d jsonDocument) Unmarshal(data []byte, out any) error {
	return d.unmarshalErr(data, j.Unmarshal(data, out))
}

type yamlDocument struct{ named }

func (d yamlDocument) Marshal(data any) ([]byte, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return nil, d.marshalErr(err)
	}
	return b, nil
}

func (d yamlDocument) Unmarshal(data []byte, out any) error {
	return d.unmarshalErr(data, yaml.Unmarshal(data, out))
}

type msgpackDocument struct{ named }

func (d msgpackDocument) Marshal(data any) ([]byte, error) {
	b, err := msgpack.Marshal(data)
	if err != nil {
		return nil, d.marshalErr(err)
	}
	return b, nil
}

func (d msgpackDocument) Unmarshal(data []byte, out any) error {
	return d.unmarshalErr(data, msgpack.Unmarshal(data, out))
}
