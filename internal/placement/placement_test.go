package placement

import (
	"errors"
	"testing"

	"github.com/Betrayd/game-maps/internal/capture"
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world"
	"github.com/Betrayd/game-maps/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace_SingleVoxelRoundTrip(t *testing.T) {
	src := world.NewMemory("minecraft:overworld")
	gold := block.NewState("minecraft:gold_block", nil)
	require.NoError(t, src.SetBlockState(vec.Vec3{X: 7, Y: 64, Z: -9}, gold, world.FlagsForce))

	m, err := capture.Point(src, vec.Vec3{X: 7, Y: 64, Z: -9}, vec.Vec3{X: 7, Y: 64, Z: -9}, capture.Options{})
	require.NoError(t, err)

	dst := world.NewMemory("minecraft:overworld")
	offset := vec.Vec3{X: 100, Y: 10, Z: 100}
	stats, err := Place(dst, m, offset)
	require.NoError(t, err)

	assert.Equal(t, gold, dst.BlockState(offset), "состояние воспроизводится в offset+local")
	assert.Equal(t, 4096, stats.Blocks, "пишутся все ячейки секции")

	_, flags := dst.Writes()
	assert.Equal(t, world.FlagsForce, flags)
}

func TestPlace_TranslatesBlockEntitiesAndEntities(t *testing.T) {
	m := gamemap.New(nil, nil)
	m.SetBlockState(vec.Vec3{X: 1, Y: 2, Z: 3}, block.Chest)
	chest := record.Compound{"id": "minecraft:chest"}
	chest.SetIntTriple("x", "y", "z", 1, 2, 3)
	m.PutBlockEntity(vec.Vec3{X: 1, Y: 2, Z: 3}, chest)

	painting := record.Compound{"id": "minecraft:painting"}
	painting.SetIntTriple("TileX", "TileY", "TileZ", 4, 5, 6)
	m.AddEntity(gamemap.NewEntity(vec.Vec3Float{X: 4.5, Y: 5.5, Z: 6.5}, painting))
	horse := record.Compound{"id": "minecraft:horse", "Passengers": []any{map[string]any{"id": "minecraft:skeleton"}}}
	m.AddEntity(gamemap.NewEntity(vec.Vec3Float{X: 0.5, Y: 1, Z: 0.5}, horse))

	dst := world.NewMemory("minecraft:overworld")
	offset := vec.Vec3{X: -32, Y: 64, Z: 16}
	stats, err := PlaceWith(dst, m, offset, Options{SkipAir: true})
	require.NoError(t, err)
	assert.Equal(t, Stats{Blocks: 1, BlockEntities: 1, Entities: 2}, stats)

	rec, ok := dst.BlockEntity(vec.Vec3{X: -31, Y: 66, Z: 19})
	require.True(t, ok, "блок-сущность создана в смещённой позиции")
	x, y, z, _ := rec.IntTriple("x", "y", "z")
	assert.Equal(t, []int{-31, 66, 19}, []int{x, y, z})

	spawned := dst.Entities()
	require.Len(t, spawned, 2)
	var sawPainting bool
	for _, e := range spawned {
		saved, ok := e.SaveRecord()
		require.True(t, ok)
		switch saved["id"] {
		case "minecraft:painting":
			sawPainting = true
			assert.Equal(t, vec.Vec3Float{X: -27.5, Y: 69.5, Z: 22.5}, e.Pos())
			tx, ty, tz, _ := saved.IntTriple("TileX", "TileY", "TileZ")
			assert.Equal(t, []int{-28, 69, 22}, []int{tx, ty, tz})
		case "minecraft:horse":
			passengers, ok := saved.CompoundList("Passengers")
			require.True(t, ok)
			require.Len(t, passengers, 1)
			assert.True(t, passengers[0].Has("UUID"), "пассажиры получают новую идентичность")
		}
	}
	assert.True(t, sawPainting)
	assert.False(t, m.Entities[0].Record.Has("UUID"), "карта не меняется при размещении")
}

type failingWriter struct {
	world.Writer
}

var errReadOnly = errors.New("read-only world")

func (failingWriter) SetBlockState(vec.Vec3, block.State, world.SetFlags) error { return errReadOnly }

func TestPlace_WriterErrorIsReturned(t *testing.T) {
	m := gamemap.New(nil, nil)
	m.SetBlockState(vec.Vec3{}, block.Stone)

	_, err := Place(failingWriter{}, m, vec.Vec3{})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestPlace_CustomFlags(t *testing.T) {
	m := gamemap.New(nil, nil)
	m.SetBlockState(vec.Vec3{}, block.Stone)

	dst := world.NewMemory("minecraft:overworld")
	_, err := PlaceWith(dst, m, vec.Vec3{}, Options{SkipAir: true, Flags: world.FlagNotifyNeighbors})
	require.NoError(t, err)
	n, flags := dst.Writes()
	assert.Equal(t, 1, n)
	assert.Equal(t, world.FlagNotifyNeighbors, flags)
}
