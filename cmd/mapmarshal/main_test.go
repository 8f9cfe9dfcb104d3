package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/mapmarshal/schemaconf"
)

func TestDescribe(t *testing.T) {
	reg, err := schemaconf.Load([]byte(`
Item:
  properties:
    name: {type: string}
    position: {name: pos, type: [ref, Point]}
  constructorArgs: [name]
  discriminator: {property: kind, name: type, values: {text: TextItem, image: ImageItem}}
`))
	require.NoError(t, err)
	e, err := reg.Lookup("Item")
	require.NoError(t, err)

	assert.Equal(t,
		"Item (Item): name string, position->pos ref(Point) new(name) [type: image=ImageItem text=TextItem]",
		describe("Item", e))
	assert.Equal(t, []string{"ImageItem", "Point", "TextItem"}, reg.CheckRefs())
}

func TestDocumentCodec(t *testing.T) {
	for name, want := range map[string]string{"json": "json", "YAML": "yaml", "yml": "yaml", "mp": "msgpack"} {
		c, err := documentCodec(name)
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}
	_, err := documentCodec("toml")
	assert.Error(t, err)
}
