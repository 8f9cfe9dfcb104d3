package binding_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/mapmarshal/binding"
)

type point struct {
	X, Y int
}

type labeled struct {
	point
	Label string
}

var pointType = binding.Type[point]{
	New: func(args []any) (*point, error) {
		x, err := binding.Arg[int](args, 0)
		if err != nil {
			return nil, err
		}
		y, err := binding.Arg[int](args, 1)
		if err != nil {
			return nil, err
		}
		return &point{X: x, Y: y}, nil
	},
	Getters: map[string]func(*point) any{
		"x": func(p *point) any { return p.X },
		"y": func(p *point) any { return p.Y },
	},
	Setters: map[string]func(*point, any) error{
		"x": func(p *point, v any) (err error) { p.X, err = binding.Value[int](v); return },
		"y": func(p *point, v any) (err error) { p.Y, err = binding.Value[int](v); return },
	},
}

func newTable(t *testing.T) *binding.Table {
	t.Helper()
	tbl := binding.NewTable()
	require.NoError(t, binding.Register(tbl, "Point", pointType))
	return tbl
}

func TestTable_GetSetConstruct(t *testing.T) {
	tbl := newTable(t)

	v, err := tbl.Construct("Point", []any{3, nil})
	require.NoError(t, err)
	p, ok := v.(*point)
	require.True(t, ok)
	assert.Equal(t, point{X: 3}, *p)

	require.NoError(t, tbl.Set(p, "y", 7))
	got, err := tbl.Get(p, "y")
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	// nil resets to the zero value
	require.NoError(t, tbl.Set(p, "x", nil))
	assert.Equal(t, 0, p.X)
}

func TestTable_Errors(t *testing.T) {
	tbl := newTable(t)

	_, err := tbl.Get(&labeled{}, "x")
	assert.ErrorIs(t, err, binding.ErrUnknownType)

	_, err = tbl.Get(&point{}, "z")
	assert.ErrorIs(t, err, binding.ErrUnknownProperty)

	err = tbl.Set(&point{}, "x", "seven")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want int")

	_, err = tbl.Construct("Missing", nil)
	assert.ErrorIs(t, err, binding.ErrUnknownType)

	_, err = tbl.Construct("Point", []any{"a"})
	require.Error(t, err)

	assert.ErrorIs(t, binding.Register(tbl, "Point", pointType), binding.ErrDuplicate)
	assert.ErrorIs(t, binding.Register(tbl, "Other", pointType), binding.ErrDuplicate)
}

func TestTable_NoConstructor(t *testing.T) {
	tbl := binding.NewTable()
	binding.MustRegister(tbl, "Label", binding.Type[labeled]{})

	_, err := tbl.Construct("Label", nil)
	assert.ErrorIs(t, err, binding.ErrNoConstructor)
}

func TestTable_Inherit(t *testing.T) {
	lt := binding.Inherit(pointType, func(l *labeled) *point { return &l.point })
	lt.New = func([]any) (*labeled, error) { return &labeled{}, nil }
	lt.Getters["label"] = func(l *labeled) any { return l.Label }
	lt.Setters["label"] = func(l *labeled, v any) (err error) { l.Label, err = binding.Value[string](v); return }

	tbl := newTable(t)
	binding.MustRegister(tbl, "Labeled", lt)

	v, err := tbl.Construct("Labeled", nil)
	require.NoError(t, err)
	require.NoError(t, tbl.Set(v, "x", 4))
	require.NoError(t, tbl.Set(v, "label", "origin"))

	x, err := tbl.Get(v, "x")
	require.NoError(t, err)
	assert.Equal(t, 4, x)
	assert.Equal(t, "origin", v.(*labeled).Label)

	// the base table is left untouched
	_, has := pointType.Getters["label"]
	assert.False(t, has)
}

func TestTable_ConstructorError(t *testing.T) {
	boom := errors.New("boom")
	tbl := binding.NewTable()
	binding.MustRegister(tbl, "Failing", binding.Type[point]{
		New: func([]any) (*point, error) { return nil, boom },
	})

	v, err := tbl.Construct("Failing", nil)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, v)
}
