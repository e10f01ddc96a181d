package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_SectionAndLocal(t *testing.T) {
	cases := []struct {
		in      Vec3
		section SectionPos
		local   Vec3
	}{
		{Vec3{0, 0, 0}, SectionPos{0, 0, 0}, Vec3{0, 0, 0}},
		{Vec3{15, 16, 17}, SectionPos{0, 1, 1}, Vec3{15, 0, 1}},
		{Vec3{-1, -16, -17}, SectionPos{-1, -1, -2}, Vec3{15, 0, 15}},
		{Vec3{-33, 64, 255}, SectionPos{-3, 4, 15}, Vec3{15, 0, 15}},
	}

	for _, c := range cases {
		assert.Equal(t, c.section, c.in.Section(), "секция для %v", c.in)
		assert.Equal(t, c.local, c.in.Local(), "локальные координаты для %v", c.in)
		// floor(coord/16) и неотрицательный остаток
		assert.Equal(t, FloorDiv(c.in.X, 16), c.in.Section().X)
		assert.Equal(t, FloorMod(c.in.Z, 16), c.in.Local().Z)
		// обратное преобразование
		assert.Equal(t, c.in, c.in.Section().Origin().Add(c.in.Local()))
	}
}

func TestFloorDivMod(t *testing.T) {
	assert.Equal(t, -1, FloorDiv(-1, 16))
	assert.Equal(t, 0, FloorDiv(15, 16))
	assert.Equal(t, -2, FloorDiv(-17, 16))
	assert.Equal(t, 15, FloorMod(-1, 16))
	assert.Equal(t, 0, FloorMod(-16, 16))
}

func TestBox(t *testing.T) {
	b := NewBox(Vec3{5, -2, 3}, Vec3{1, 4, -3})
	assert.Equal(t, Vec3{1, -2, -3}, b.Min)
	assert.Equal(t, Vec3{5, 4, 3}, b.Max)
	assert.Equal(t, int64(5*7*7), b.Volume())
	assert.True(t, b.Contains(Vec3{5, 4, 3}), "границы включены")
	assert.False(t, b.Contains(Vec3{6, 4, 3}))

	count := 0
	b.ForEach(func(Vec3) { count++ })
	assert.Equal(t, int(b.Volume()), count)
}

func TestSectionBox(t *testing.T) {
	b := SectionBox(SectionPos{1, 0, -1}, SectionPos{0, 0, 0})
	assert.Equal(t, Vec3{0, 0, -16}, b.Min)
	assert.Equal(t, Vec3{31, 15, 15}, b.Max)
}

func TestColumnKey(t *testing.T) {
	assert.NotEqual(t, ColumnKey(1, 0), ColumnKey(0, 1))
	assert.NotEqual(t, ColumnKey(-1, 0), ColumnKey(0, -1))
	assert.Equal(t, ColumnKey(-5, 7), ColumnKey(-5, 7))
}

func TestVec3Float_Floor(t *testing.T) {
	assert.Equal(t, Vec3{-1, 0, 2}, Vec3Float{X: -0.5, Y: 0.99, Z: 2}.Floor())
}
