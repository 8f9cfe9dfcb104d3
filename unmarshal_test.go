package mapmarshal_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/mapmarshal"
	"github.com/reoring/mapmarshal/binding"
	"github.com/reoring/mapmarshal/codec"
)

func TestUnmarshal_Constructor(t *testing.T) {
	m := newMarshaller(t)

	p, err := mapmarshal.UnmarshalAs[*Point](m, map[string]any{"x": "42", "y": 3.9}, "Point")
	require.NoError(t, err)
	assert.Equal(t, &Point{x: 42, y: 3}, p)

	// absent constructor arguments arrive as nil
	p, err = mapmarshal.UnmarshalAs[*Point](m, map[string]any{}, "Point")
	require.NoError(t, err)
	assert.Equal(t, &Point{}, p)
}

func TestUnmarshal_SetterCalls(t *testing.T) {
	reg := mapmarshal.MustNewRegistry(schema())
	rec := &recorder{Accessor: accessor()}
	m := mapmarshal.MustNew(reg, rec)

	v, err := m.Unmarshal(mappingOf("size", int64(3), "family", nil), "Font")
	require.NoError(t, err)

	// null reaches the setter, an absent key never does
	assert.Equal(t, []string{"size=3", "family=<nil>"}, rec.sets)
	assert.Equal(t, &Font{size: 3}, v)
}

func TestUnmarshal_Discriminator(t *testing.T) {
	reg := mapmarshal.MustNewRegistry(schema())
	rec := &recorder{Accessor: accessor()}
	m := mapmarshal.MustNew(reg, rec)

	in := mappingOf(
		"type", "text",
		"name", "greeting",
		"text", "hi",
		"font", `{"family":"serif","size":12}`,
		"position", mappingOf("x", 1, "y", 2),
	)
	d, err := m.UnmarshalWithMeta(in, "Item")
	require.NoError(t, err)
	assert.Empty(t, d.Unknown)

	item, ok := d.Value.(*TextItem)
	require.True(t, ok, "got %T", d.Value)
	assert.Equal(t, "text", item.kind)
	assert.Equal(t, "hi", item.text)
	assert.Equal(t, "greeting", item.name)
	assert.Equal(t, "greeting", item.label)
	assert.Equal(t, &Point{x: 1, y: 2}, item.pos)
	assert.Equal(t, &Font{family: "serif", size: 12}, item.font)

	// the tag is applied once per chain level, on the subtype instance
	var tags int
	for _, s := range rec.sets {
		if s == "kind=text" {
			tags++
		}
	}
	assert.Equal(t, 1, tags)
}

func TestUnmarshal_NilTag(t *testing.T) {
	m := newMarshaller(t)

	v, err := m.Unmarshal(mappingOf("type", nil, "name", "plain"), "Item")
	require.NoError(t, err)
	assert.Equal(t, &Item{name: "plain"}, v)

	v, err = m.Unmarshal(mappingOf("type", "video", "name", "odd"), "Item")
	require.NoError(t, err)
	assert.Equal(t, &Item{kind: "video", name: "odd"}, v)
}

func TestUnmarshal_UnknownKeys(t *testing.T) {
	var seen []mapmarshal.UnknownProperty
	m := newMarshaller(t, mapmarshal.WithUnknownHandler(func(u mapmarshal.UnknownProperty) {
		seen = append(seen, u)
	}))

	in := mappingOf(
		"type", "image",
		"src", "a.png",
		"extra", true,
		"position", mappingOf("x", 1, "y", 2, "z", 3),
	)
	d, err := m.UnmarshalWithMeta(in, "Item")
	require.NoError(t, err)

	img, ok := d.Value.(*ImageItem)
	require.True(t, ok)
	assert.Equal(t, "a.png", img.Src)

	assert.Equal(t, map[string]any{"extra": true}, d.UnknownAt("/").ToMap())
	assert.Equal(t, map[string]any{"z": 3}, d.UnknownAt("/position").ToMap())
	assert.Equal(t, 0, d.UnknownAt("/nowhere").Len())
	require.Len(t, d.Unknown, 2)
	assert.Equal(t, "Point", d.Unknown[0].Ref)
	assert.Equal(t, "Item", d.Unknown[1].Ref)
	assert.Equal(t, d.Unknown, seen)
}

func TestUnmarshal_Array(t *testing.T) {
	m := newMarshaller(t)

	in := mappingOf("type", "image", "sizes", mappingOf("30", "large", "10", 1.5))
	v, err := m.Unmarshal(in, "Item")
	require.NoError(t, err)
	assert.Equal(t, mapmarshal.Pairs{{Key: 30, Value: "large"}, {Key: 10, Value: "1.5"}}, v.(*ImageItem).Sizes)

	_, err = m.Unmarshal(mappingOf("type", "image", "sizes", "nope"), "Item")
	assert.ErrorIs(t, err, mapmarshal.ErrInvalidInput)
}

func TestUnmarshal_RoundTrip(t *testing.T) {
	docs := []codec.Document{codec.JSON(), codec.YAML(), codec.MsgPack()}
	for _, c := range docs {
		t.Run(c.Name(), func(t *testing.T) {
			m := newMarshaller(t, mapmarshal.WithDocumentCodec(c))
			src := textItem()

			b, err := m.MarshalDocument(src, "Item")
			require.NoError(t, err)
			d, err := m.UnmarshalDocument(b, "Item")
			require.NoError(t, err)
			assert.Empty(t, d.Unknown)

			got := d.Value.(*TextItem)
			assert.Equal(t, src.kind, got.kind)
			assert.Equal(t, src.name, got.name)
			assert.Equal(t, src.text, got.text)
			assert.Equal(t, src.pos, got.pos)
			assert.Equal(t, src.font, got.font)
		})
	}
}

// Reading exposes exported fields only, one per leaf kind.
type Reading struct {
	Label  string
	Count  int
	On     bool
	Ratio  float64
	Counts mapmarshal.Pairs
}

func TestUnmarshal_RoundTripLeaves(t *testing.T) {
	reg := mapmarshal.MustNewRegistry(map[string]mapmarshal.Entry{
		"Reading": {
			TypeID: "Reading",
			Properties: []mapmarshal.Property{
				{Name: "label", Type: mapmarshal.String()},
				{Name: "count", Type: mapmarshal.Int()},
				{Name: "on", Type: mapmarshal.Bool()},
				{Name: "ratio", Type: mapmarshal.Float()},
				{Name: "counts", Type: mapmarshal.Array(mapmarshal.String(), mapmarshal.Int())},
			},
		},
	})
	acc := binding.NewMethods().MustConstructor("Reading", func() *Reading { return &Reading{} })
	src := &Reading{
		Label:  "gauge",
		Count:  7,
		On:     true,
		Ratio:  0.25,
		Counts: mapmarshal.Pairs{{Key: "b", Value: 2}, {Key: "a", Value: 1}},
	}

	for _, c := range []codec.Document{codec.JSON(), codec.YAML(), codec.MsgPack()} {
		t.Run(c.Name(), func(t *testing.T) {
			m := mapmarshal.MustNew(reg, acc, mapmarshal.WithDocumentCodec(c))

			out, err := m.Marshal(src, "Reading")
			require.NoError(t, err)
			counts, _ := out.Get("counts")
			assert.Equal(t, []any{"b", "a"}, counts.(mapmarshal.Pairs).Keys())

			b, err := m.MarshalDocument(src, "Reading")
			require.NoError(t, err)
			got, err := mapmarshal.UnmarshalAs[*Reading](m, mustDecode(t, c, b), "Reading")
			require.NoError(t, err)
			assert.Equal(t, src, got)
		})
	}
}

func mustDecode(t *testing.T, c codec.Document, b []byte) *mapmarshal.Mapping {
	t.Helper()
	out := mapmarshal.NewMapping(0)
	require.NoError(t, c.Unmarshal(b, out))
	return out
}

func TestUnmarshal_NestedDocuments(t *testing.T) {
	reg := mapmarshal.MustNewRegistry(map[string]mapmarshal.Entry{
		"Node": {
			TypeID: "Node",
			Properties: []mapmarshal.Property{
				{Name: "name", Type: mapmarshal.String()},
				{Name: "next", Type: mapmarshal.JSON(mapmarshal.JSON(mapmarshal.Ref("Node")))},
			},
		},
	})
	m := mapmarshal.MustNew(reg, accessor())
	src := &Node{Name: "a", Next: &Node{Name: "b"}}

	out, err := m.Marshal(src, "Node")
	require.NoError(t, err)
	next, _ := out.Get("next")
	assert.Equal(t, `"{\"name\":\"b\"}"`, next)

	v, err := m.Unmarshal(out, "Node")
	require.NoError(t, err)
	assert.Equal(t, src, v)
}

func TestUnmarshal_Errors(t *testing.T) {
	m := newMarshaller(t)

	_, err := m.Unmarshal("not a mapping", "Point")
	assert.ErrorIs(t, err, mapmarshal.ErrInvalidInput)

	_, err = m.Unmarshal(nil, "Point")
	assert.ErrorIs(t, err, mapmarshal.ErrInvalidInput)

	_, err = m.Unmarshal(map[string]any{}, "Nope")
	assert.ErrorIs(t, err, mapmarshal.ErrSchemaNotFound)

	_, err = m.Unmarshal(mappingOf("position", "1,2"), "Item")
	e, ok := mapmarshal.AsError(err)
	require.True(t, ok)
	assert.Equal(t, mapmarshal.CodeInvalidInput, e.Code)
	assert.Equal(t, "/position", e.Path)

	_, err = m.Unmarshal(mappingOf("type", "text", "font", "{broken"), "Item")
	assert.ErrorIs(t, err, mapmarshal.ErrDocumentDecode)

	_, err = m.UnmarshalDocument([]byte("{broken"), "Item")
	assert.ErrorIs(t, err, mapmarshal.ErrDocumentDecode)

	_, err = mapmarshal.UnmarshalAs[*TextItem](m, mappingOf("name", "plain"), "Item")
	assert.ErrorIs(t, err, mapmarshal.ErrInvalidInput)
}

func TestUnmarshal_ConstructionFailure(t *testing.T) {
	boom := errors.New("boom")
	acc := accessor().MustConstructor("Broken", func() (*Point, error) { return nil, boom })

	// no constructor registered for the entry's type ID
	reg2 := mapmarshal.MustNewRegistry(map[string]mapmarshal.Entry{"Thing": {TypeID: "Unbound"}})
	_, err := mapmarshal.MustNew(reg2, acc).Unmarshal(map[string]any{}, "Thing")
	assert.ErrorIs(t, err, mapmarshal.ErrConstruction)

	reg3 := mapmarshal.MustNewRegistry(map[string]mapmarshal.Entry{"Thing": {TypeID: "Broken"}})
	_, err = mapmarshal.MustNew(reg3, acc).Unmarshal(map[string]any{}, "Thing")
	assert.ErrorIs(t, err, mapmarshal.ErrConstruction)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Broken")
}

func TestUnmarshal_SetterFailure(t *testing.T) {
	m := newMarshaller(t)

	// Item.SetKind only takes strings
	_, err := m.Unmarshal(mappingOf("type", 7), "Item")
	require.ErrorIs(t, err, mapmarshal.ErrAccessorInvocation)
	assert.Contains(t, err.Error(), "setKind")
}

func TestUnmarshal_DepthGuard(t *testing.T) {
	in := mappingOf("name", "leaf")
	for i := 0; i < 5; i++ {
		in = mappingOf("next", in)
	}

	_, err := newMarshaller(t, mapmarshal.WithMaxDepth(4)).Unmarshal(in, "Node")
	assert.ErrorIs(t, err, mapmarshal.ErrDepthExceeded)

	v, err := newMarshaller(t).Unmarshal(in, "Node")
	require.NoError(t, err)
	n := v.(*Node)
	for n.Next != nil {
		n = n.Next
	}
	assert.Equal(t, "leaf", n.Name)
}
