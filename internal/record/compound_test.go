package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompound_TolerantAccessors(t *testing.T) {
	c := Compound{
		"b":   int8(3),
		"s":   int16(-4),
		"i":   int32(70000),
		"l":   int64(1) << 40,
		"f":   float32(1.5),
		"d":   2.25,
		"str": "hello",
		"Pos": []any{1.0, float32(2), int32(3)},
		"sub": map[string]any{"x": int32(1)},
	}

	n, ok := c.Int("b")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, _ = c.Int("s")
	assert.Equal(t, -4, n)

	l, ok := c.Long("l")
	assert.True(t, ok)
	assert.Equal(t, int64(1)<<40, l)

	f, ok := c.Double("f")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	s, ok := c.String("str")
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	pos, ok := c.DoubleList("Pos")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, pos)

	sub, ok := c.Compound("sub")
	require.True(t, ok)
	x, _ := sub.Int("x")
	assert.Equal(t, 1, x)

	_, ok = c.Int("missing")
	assert.False(t, ok)
	_, ok = c.String("i")
	assert.False(t, ok, "число не является строкой")
}

func TestCompound_CloneIsDeep(t *testing.T) {
	orig := Compound{
		"Passengers": []any{map[string]any{"id": "minecraft:pig"}},
		"Motion":     []float64{0, 1, 0},
		"Tag":        Compound{"k": "v"},
	}
	cp := orig.Clone()

	cp["Tag"].(Compound)["k"] = "changed"
	cp["Motion"].([]float64)[1] = 5
	cp["Passengers"].([]any)[0].(Compound)["id"] = "minecraft:cow"

	assert.Equal(t, "v", orig["Tag"].(Compound)["k"])
	assert.Equal(t, 1.0, orig["Motion"].([]float64)[1])
	assert.Equal(t, "minecraft:pig", orig["Passengers"].([]any)[0].(map[string]any)["id"])
}

func TestCompound_Normalize(t *testing.T) {
	c := Compound{
		"n":     7,
		"flag":  true,
		"Pos":   []any{1.0, 2.0, 3.0},
		"Rot":   []any{float32(1), float32(2)},
		"Items": []any{map[string]any{"id": "a"}, Compound{"id": "b"}},
		"Tags":  []any{"x", "y"},
		"Mixed": []any{"x", int32(1)},
		"Empty": []any{},
	}

	out := c.Normalize()
	assert.Equal(t, int32(7), out["n"])
	assert.Equal(t, int8(1), out["flag"])
	assert.Equal(t, []float64{1, 2, 3}, out["Pos"])
	assert.Equal(t, []float32{1, 2}, out["Rot"])
	assert.Equal(t, []string{"x", "y"}, out["Tags"])
	assert.IsType(t, []map[string]any{}, out["Items"])
	assert.IsType(t, []any{}, out["Mixed"])
	assert.Equal(t, []map[string]any{}, out["Empty"])
}

func TestCompound_IntTriple(t *testing.T) {
	c := Compound{}
	c.SetIntTriple("x", "y", "z", -1, 64, 17)
	x, y, z, ok := c.IntTriple("x", "y", "z")
	assert.True(t, ok)
	assert.Equal(t, []int{-1, 64, 17}, []int{x, y, z})

	delete(c, "y")
	_, _, _, ok = c.IntTriple("x", "y", "z")
	assert.False(t, ok)
}
