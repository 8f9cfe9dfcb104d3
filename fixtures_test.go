package mapmarshal_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/mapmarshal"
	"github.com/reoring/mapmarshal/binding"
)

type Point struct{ x, y int }

func NewPoint(x, y int) *Point { return &Point{x: x, y: y} }

func (p *Point) GetX() int  { return p.x }
func (p *Point) GetY() int  { return p.y }
func (p *Point) SetX(v int) { p.x = v }
func (p *Point) SetY(v int) { p.y = v }

type Font struct {
	family string
	size   int
	bold   bool
}

func (f *Font) GetFamily() string  { return f.family }
func (f *Font) SetFamily(v string) { f.family = v }
func (f *Font) GetSize() int       { return f.size }
func (f *Font) SetSize(v int)      { f.size = v }
func (f *Font) GetBold() bool      { return f.bold }
func (f *Font) SetBold(v bool)     { f.bold = v }

type Item struct {
	kind string
	name string
	pos  *Point
}

// GetKind reports an unset tag as nil.
func (i *Item) GetKind() any {
	if i.kind == "" {
		return nil
	}
	return i.kind
}
func (i *Item) SetKind(v string)     { i.kind = v }
func (i *Item) GetName() string      { return i.name }
func (i *Item) SetName(v string)     { i.name = v }
func (i *Item) GetPosition() *Point  { return i.pos }
func (i *Item) SetPosition(p *Point) { i.pos = p }

type TextItem struct {
	Item
	text  string
	label string
	font  *Font
}

func NewTextItem(text string) *TextItem { return &TextItem{text: text} }

func (t *TextItem) GetText() string   { return t.text }
func (t *TextItem) GetLabel() string  { return t.label }
func (t *TextItem) SetLabel(v string) { t.label = v }
func (t *TextItem) GetFont() *Font    { return t.font }
func (t *TextItem) SetFont(f *Font)   { t.font = f }

type ImageItem struct {
	Item
	Src   string
	Sizes mapmarshal.Pairs
}

// Node is self-referential.
type Node struct {
	Name string
	Next *Node
}

func schema() map[string]mapmarshal.Entry {
	return map[string]mapmarshal.Entry{
		"Point": {
			TypeID: "Point",
			Properties: []mapmarshal.Property{
				{Name: "x", Type: mapmarshal.Int()},
				{Name: "y", Type: mapmarshal.Int()},
			},
			ConstructorArgs: []string{"x", "y"},
		},
		"Font": {
			TypeID: "Font",
			Properties: []mapmarshal.Property{
				{Name: "family", Type: mapmarshal.String()},
				{Name: "size", Type: mapmarshal.Int()},
				{Name: "bold", Type: mapmarshal.Bool()},
			},
		},
		"Item": {
			TypeID: "Item",
			Properties: []mapmarshal.Property{
				{Name: "name", Type: mapmarshal.String()},
				{Name: "position", Type: mapmarshal.Ref("Point")},
			},
			Discriminator: &mapmarshal.Discriminator{
				Property:   "kind",
				OutputName: "type",
				Values:     map[string]string{"text": "TextItem", "image": "ImageItem"},
			},
		},
		"TextItem": {
			TypeID: "TextItem",
			Properties: []mapmarshal.Property{
				{Name: "text", Type: mapmarshal.String()},
				{Name: "label", OutputName: "name", Type: mapmarshal.String()},
				{Name: "font", Type: mapmarshal.JSON(mapmarshal.Ref("Font"))},
			},
			ConstructorArgs: []string{"text"},
		},
		"ImageItem": {
			TypeID: "ImageItem",
			Properties: []mapmarshal.Property{
				{Name: "src", Type: mapmarshal.String()},
				{Name: "sizes", Type: mapmarshal.Array(mapmarshal.Int(), mapmarshal.String())},
			},
		},
		"Node": {
			TypeID: "Node",
			Properties: []mapmarshal.Property{
				{Name: "name", Type: mapmarshal.String()},
				{Name: "next", Type: mapmarshal.Ref("Node")},
			},
		},
	}
}

func accessor() *binding.Methods {
	return binding.NewMethods().
		MustConstructor("Point", NewPoint).
		MustConstructor("Font", func() *Font { return &Font{} }).
		MustConstructor("Item", func() *Item { return &Item{} }).
		MustConstructor("TextItem", NewTextItem).
		MustConstructor("ImageItem", func() *ImageItem { return &ImageItem{} }).
		MustConstructor("Node", func() *Node { return &Node{} })
}

func newMarshaller(t *testing.T, opts ...mapmarshal.Option) *mapmarshal.Marshaller {
	t.Helper()
	reg, err := mapmarshal.NewRegistry(schema())
	require.NoError(t, err)
	m, err := mapmarshal.New(reg, accessor(), opts...)
	require.NoError(t, err)
	return m
}

// recorder logs every Set call before delegating.
type recorder struct {
	mapmarshal.Accessor
	mu   sync.Mutex
	sets []string
}

func (r *recorder) Set(instance any, property string, value any) error {
	r.mu.Lock()
	r.sets = append(r.sets, fmt.Sprintf("%s=%v", property, value))
	r.mu.Unlock()
	return r.Accessor.Set(instance, property, value)
}

func textItem() *TextItem {
	t := NewTextItem("hi")
	t.kind = "text"
	t.name = "greeting"
	t.label = "ignored"
	t.pos = NewPoint(1, 2)
	t.font = &Font{family: "serif", size: 12}
	return t
}

func mappingOf(kv ...any) *mapmarshal.Mapping {
	m := mapmarshal.NewMapping(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}
