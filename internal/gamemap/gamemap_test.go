package gamemap

import (
	"errors"
	"testing"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/gamemap/marker"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameMap_SetGetRoundTrip(t *testing.T) {
	m := New(nil, nil)

	positions := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 15, Y: 15, Z: 15},
		{X: 16, Y: -1, Z: 31},
		{X: -1, Y: -64, Z: -17},
		{X: 1000, Y: 319, Z: -1000},
	}
	for i, p := range positions {
		s := block.NewState("test:block", map[string]string{"i": string(rune('a' + i))})
		m.SetBlockState(p, s)
		m.SetBiome(p, block.Desert)

		assert.Equal(t, s, m.BlockState(p), "позиция %v", p)
		assert.Equal(t, block.Desert, m.Biome(p))

		c, ok := m.Chunk(p.Section())
		require.True(t, ok, "секция создана записью")
		got, err := c.BlockState(p.Local())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	sections := make(map[vec.SectionPos]struct{})
	for _, p := range positions {
		sections[p.Section()] = struct{}{}
	}
	assert.Equal(t, len(sections), m.ChunkCount(), "(0,0,0) и (15,15,15) в одной секции")
}

func TestGameMap_AbsentChunkIsVoid(t *testing.T) {
	m := New(nil, nil)
	assert.Equal(t, block.Air, m.BlockState(vec.Vec3{X: 100, Y: 5, Z: 100}))
	assert.Equal(t, block.DefaultBiome, m.Biome(vec.Vec3{X: 100, Y: 5, Z: 100}))
	_, ok := m.BlockEntity(vec.Vec3{})
	assert.False(t, ok)
	assert.Equal(t, 0, m.ChunkCount(), "чтение не создаёт секций")

	_, _, ok = m.ChunkBounds()
	assert.False(t, ok)
}

func TestGameMap_ChunkBoundsAndKeys(t *testing.T) {
	m := New(nil, nil)
	m.ChunkAt(vec.SectionPos{X: 2, Y: 0, Z: -1})
	m.ChunkAt(vec.SectionPos{X: -3, Y: 4, Z: 5})
	m.ChunkAt(vec.SectionPos{X: 0, Y: 0, Z: 0})

	lo, hi, ok := m.ChunkBounds()
	require.True(t, ok)
	assert.Equal(t, vec.SectionPos{X: -3, Y: 0, Z: -1}, lo)
	assert.Equal(t, vec.SectionPos{X: 2, Y: 4, Z: 5}, hi)

	keys := m.SectionKeys()
	assert.Equal(t, []vec.SectionPos{{X: 2, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 0}, {X: -3, Y: 4, Z: 5}}, keys)
}

func TestChunk_BlockEntityBounds(t *testing.T) {
	c := NewChunk(block.NewStateRegistry(), block.NewBiomeRegistry())

	require.NoError(t, c.PutBlockEntity(vec.Vec3{X: 15, Y: 0, Z: 3}, record.Compound{"id": "minecraft:chest"}))

	err := c.PutBlockEntity(vec.Vec3{X: 16, Y: 0, Z: 0}, record.Compound{})
	var be *BoundsError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "local", be.What)

	assert.True(t, errs.IsBounds(c.PutBlockEntity(vec.Vec3{Y: -1}, record.Compound{})))
	assert.Equal(t, 1, c.BlockEntityCount())
}

func TestChunk_PutBlockEntityRecord(t *testing.T) {
	c := NewChunk(nil, nil)
	rec := record.Compound{"id": "minecraft:sign"}
	rec.SetIntTriple("x", "y", "z", -1, 70, 33)
	require.NoError(t, c.PutBlockEntityRecord(rec))

	got, ok := c.BlockEntity(vec.Vec3{X: 15, Y: 6, Z: 1})
	require.True(t, ok)
	assert.Equal(t, "minecraft:sign", got["id"])

	assert.True(t, errs.IsDecode(c.PutBlockEntityRecord(record.Compound{"id": "x"})))
}

func TestChunk_BlockEntitiesOrdered(t *testing.T) {
	c := NewChunk(nil, nil)
	require.NoError(t, c.PutBlockEntity(vec.Vec3{X: 0, Y: 1, Z: 0}, record.Compound{"n": 3}))
	require.NoError(t, c.PutBlockEntity(vec.Vec3{X: 1, Y: 0, Z: 0}, record.Compound{"n": 1}))
	require.NoError(t, c.PutBlockEntity(vec.Vec3{X: 0, Y: 0, Z: 1}, record.Compound{"n": 2}))

	entries := c.BlockEntities()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Record["n"])
	}
}

func TestChunk_IsEmptyAndCopy(t *testing.T) {
	c := NewChunk(nil, nil)
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.SetBlockState(vec.Vec3{X: 1}, block.Stone))
	assert.False(t, c.IsEmpty())

	cp := c.Copy()
	require.NoError(t, cp.SetBlockState(vec.Vec3{X: 1}, block.Air))
	s, _ := c.BlockState(vec.Vec3{X: 1})
	assert.Equal(t, block.Stone, s, "копия независима")
	assert.True(t, cp.IsEmpty())
}

func TestGameMap_TopY(t *testing.T) {
	m := New(nil, nil)
	m.SetBlockState(vec.Vec3{X: 3, Y: 10, Z: 4}, block.Stone)
	m.SetBlockState(vec.Vec3{X: 3, Y: 40, Z: 4}, block.Water)
	m.SetBlockState(vec.Vec3{X: 3, Y: -20, Z: 4}, block.Bedrock)

	y, ok := m.TopY(3, 4, func(s block.State) bool { return !s.IsAir() })
	require.True(t, ok)
	assert.Equal(t, 40, y)

	y, ok = m.TopY(3, 4, block.State.BlocksMotion)
	require.True(t, ok)
	assert.Equal(t, 10, y)

	y, ok = m.TopY(3, 4, func(s block.State) bool { return s == block.Bedrock })
	require.True(t, ok)
	assert.Equal(t, -20, y)

	_, ok = m.TopY(100, 100, func(block.State) bool { return true })
	assert.False(t, ok)
}

func TestEntity_IdentityStripped(t *testing.T) {
	rec := record.Compound{
		"id":   "minecraft:horse",
		"UUID": []int32{1, 2, 3, 4},
		"Passengers": []any{
			map[string]any{"id": "minecraft:zombie", "UUID": []int32{5, 6, 7, 8}},
		},
	}
	e := NewEntity(vec.Vec3Float{X: 1.5, Y: 2, Z: -0.5}, rec)

	assert.False(t, e.Record.Has("UUID"))
	passengers, _ := e.Record.CompoundList("Passengers")
	require.Len(t, passengers, 1)
	assert.False(t, passengers[0].Has("UUID"), "идентичность пассажиров тоже удаляется")
	assert.True(t, rec.Has("UUID"), "исходная запись не меняется")

	assert.Equal(t, "minecraft:horse", e.Type())
	assert.Equal(t, vec.Vec3{X: 1, Y: 2, Z: -1}, e.BlockPos())
}

func TestEntity_CreateRecordTranslates(t *testing.T) {
	rec := record.Compound{"id": "minecraft:painting"}
	rec.SetIntTriple("TileX", "TileY", "TileZ", 1, 2, 3)
	e := NewEntity(vec.Vec3Float{X: 1.5, Y: 2.5, Z: 3.5}, rec)

	out := e.CreateRecord(vec.Vec3Float{X: 10, Y: 0, Z: -10})
	pos, ok := out.DoubleList("Pos")
	require.True(t, ok)
	assert.Equal(t, []float64{11.5, 2.5, -6.5}, pos)

	tx, ty, tz, ok := out.IntTriple("TileX", "TileY", "TileZ")
	require.True(t, ok)
	assert.Equal(t, []int{11, 2, -7}, []int{tx, ty, tz})
}

func TestEntityFromRecord(t *testing.T) {
	rec := record.Compound{"id": "minecraft:pig", "Pos": []any{1.0, 2.0, 3.0}}
	e, err := EntityFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 2, Z: 3}, e.Pos)

	_, err = EntityFromRecord(record.Compound{"id": "minecraft:pig"})
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Pos", de.Field)

	_, err = EntityFromRecord(record.Compound{"Pos": []float64{1, 2}})
	assert.True(t, errs.IsDecode(err))
}

func TestGameMap_EntitiesInAndMarkers(t *testing.T) {
	m := New(nil, nil)
	m.AddEntity(NewEntity(vec.Vec3Float{X: 0.5, Y: 0, Z: 0.5}, nil))
	m.AddEntity(NewEntity(vec.Vec3Float{X: 20, Y: 0, Z: 0}, nil))
	m.AddMarker(&marker.Point{Name: "a"})

	in := m.EntitiesIn(vec.NewBox(vec.Vec3{}, vec.Vec3{X: 10, Y: 10, Z: 10}))
	assert.Len(t, in, 1)
	assert.Len(t, m.Markers, 1)
}
