package codec

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/gamemap/marker"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleMap карта с двумя секциями, блок-сущностью, сущностями и маркерами
func sampleMap() *gamemap.GameMap {
	m := gamemap.New(nil, nil)
	m.Meta.Dimension = "minecraft:the_nether"
	m.Meta.Custom = record.Compound{"author": "tester", "round": int32(3)}
	m.Meta.DayTime = 18000
	m.Meta.GameRules = map[string]string{"doDaylightCycle": "false"}

	for x := 0; x < 16; x++ {
		m.SetBlockState(vec.Vec3{X: x, Y: 0, Z: 0}, block.Stone)
	}
	m.SetBlockState(vec.Vec3{X: -1, Y: 17, Z: 5}, block.NewState("minecraft:oak_stairs", map[string]string{"facing": "north", "half": "top"}))
	m.SetBiome(vec.Vec3{X: -1, Y: 17, Z: 5}, block.Desert)

	chest := record.Compound{"id": "minecraft:chest", "Items": []map[string]any{
		{"Slot": int8(0), "id": "minecraft:apple", "Count": int8(3)},
	}}
	chest.SetIntTriple("x", "y", "z", 3, 0, 0)
	m.PutBlockEntity(vec.Vec3{X: 3, Y: 0, Z: 0}, chest)

	pig := record.Compound{"id": "minecraft:pig", "Health": float32(10)}
	m.AddEntity(gamemap.NewEntity(vec.Vec3Float{X: 1.5, Y: 1, Z: 0.5}, pig))
	zombie := record.Compound{"id": "minecraft:zombie"}
	m.AddEntity(gamemap.NewEntity(vec.Vec3Float{X: -3.25, Y: 18, Z: 7}, zombie))

	m.AddMarker(&marker.Point{Pose: marker.Pose{Pos: vec.Vec3Float{X: 2, Y: 3, Z: 4}, Yaw: 90}, Name: "center"})
	m.AddMarker(&marker.Spawn{Pose: marker.Pose{Pos: vec.Vec3Float{X: -2, Y: 1, Z: 0}}, Team: "red", Named: true})
	return m
}

func roundTrip(t *testing.T, m *gamemap.GameMap, d *Deserializer, comp Compression) *gamemap.GameMap {
	t.Helper()
	data, err := NewSerializer(nil).Marshal(m, comp)
	require.NoError(t, err)
	out, err := d.Unmarshal(data)
	require.NoError(t, err)
	return out
}

func assertSameMap(t *testing.T, want, got *gamemap.GameMap) {
	t.Helper()
	require.Equal(t, want.SectionKeys(), got.SectionKeys())
	for _, key := range want.SectionKeys() {
		wc, _ := want.Chunk(key)
		gc, _ := got.Chunk(key)
		for i := 0; i < palette.Volume; i++ {
			require.Equal(t, wc.Blocks.At(i), gc.Blocks.At(i), "секция %v ячейка %d", key, i)
			require.Equal(t, wc.Biomes.At(i), gc.Biomes.At(i), "секция %v ячейка %d", key, i)
		}
		require.Equal(t, wc.BlockEntityCount(), gc.BlockEntityCount())
	}
}

func TestRoundTrip(t *testing.T) {
	for _, comp := range []Compression{Gzip, Zstd} {
		t.Run(comp.String(), func(t *testing.T) {
			m := sampleMap()
			got := roundTrip(t, m, NewDeserializer(nil), comp)

			assertSameMap(t, m, got)

			assert.Equal(t, "minecraft:the_nether", got.Meta.Dimension)
			assert.Equal(t, "tester", got.Meta.Custom["author"])
			assert.Equal(t, int64(18000), got.Meta.DayTime)
			assert.Equal(t, "false", got.Meta.GameRules["doDaylightCycle"])

			rec, ok := got.BlockEntity(vec.Vec3{X: 3, Y: 0, Z: 0})
			require.True(t, ok)
			x, y, z, _ := rec.IntTriple("x", "y", "z")
			assert.Equal(t, []int{3, 0, 0}, []int{x, y, z})
			items, ok := rec.CompoundList("Items")
			require.True(t, ok)
			require.Len(t, items, 1)
			assert.Equal(t, "minecraft:apple", items[0]["id"])

			require.Len(t, got.Entities, 2)
			assert.Equal(t, vec.Vec3Float{X: 1.5, Y: 1, Z: 0.5}, got.Entities[0].Pos)
			assert.Equal(t, "minecraft:pig", got.Entities[0].Type())
			assert.Equal(t, vec.Vec3Float{X: -3.25, Y: 18, Z: 7}, got.Entities[1].Pos)

			require.Len(t, got.Markers, 2)
			p, ok := got.Markers[0].(*marker.Point)
			require.True(t, ok)
			assert.Equal(t, "center", p.Name)
			assert.Equal(t, float32(90), p.Yaw)
			s, ok := got.Markers[1].(*marker.Spawn)
			require.True(t, ok)
			assert.Equal(t, "red", s.Team)
			assert.True(t, s.Named)
		})
	}
}

func TestRoundTrip_EmptyMap(t *testing.T) {
	got := roundTrip(t, gamemap.New(nil, nil), NewDeserializer(nil), Gzip)
	assert.Equal(t, 0, got.ChunkCount())
	assert.Empty(t, got.Entities)
	assert.Equal(t, gamemap.DefaultDimension, got.Meta.Dimension)
	assert.False(t, got.Meta.HasCustom())
}

func TestEncode_OmitsEmptyOptionalFields(t *testing.T) {
	tree, err := NewSerializer(nil).Encode(gamemap.New(nil, nil))
	require.NoError(t, err)
	meta, ok := tree.Compound("meta")
	require.True(t, ok)
	assert.False(t, meta.Has("custom"))
	assert.False(t, meta.Has("dayTime"))
	assert.False(t, meta.Has("gameRules"))
	assert.False(t, tree.Has("registries"), "таблицы реестров только для прямого режима")

	v, ok := tree.Int("version")
	require.True(t, ok)
	assert.Equal(t, FormatVersion, v)

	s := NewSerializer(nil)
	s.WriteVersion = false
	tree, err = s.Encode(gamemap.New(nil, nil))
	require.NoError(t, err)
	assert.False(t, tree.Has("version"))
}

func TestRoundTrip_DirectMode(t *testing.T) {
	m := gamemap.New(nil, nil)
	// 300 различных состояний в одной секции: больше 8 бит палитры
	for i := 0; i < 300; i++ {
		x, y, z := palette.Unindex(i)
		m.SetBlockState(vec.Vec3{X: x, Y: y, Z: z}, block.NewState("test:block", map[string]string{"n": fmt.Sprint(i)}))
	}
	c, _ := m.Chunk(vec.SectionPos{})
	require.Equal(t, palette.ModeDirect, c.Blocks.Mode())

	tree, err := NewSerializer(nil).Encode(m)
	require.NoError(t, err)
	assert.True(t, tree.Has("registries"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tree, Gzip))
	back, err := Read(&buf)
	require.NoError(t, err)

	got, err := NewDeserializer(nil).Decode(back)
	require.NoError(t, err)
	assertSameMap(t, m, got)
}

func TestMigration_DropEntities(t *testing.T) {
	m := sampleMap()
	for i := 0; i < 5; i++ {
		m.AddEntity(gamemap.NewEntity(vec.Vec3Float{X: float64(i)}, record.Compound{"id": "minecraft:zombie"}))
	}

	d := NewDeserializer(nil)
	d.Entities.Add(func(record.Compound) (record.Compound, bool) { return nil, false })

	got := roundTrip(t, m, d, Gzip)
	assert.Empty(t, got.Entities, "все сущности отброшены миграцией")
	assert.Equal(t, m.ChunkCount(), got.ChunkCount(), "секции загружаются")
}

func TestMigration_ChainOrderAndMapping(t *testing.T) {
	d := NewDeserializer(nil)
	d.Entities.
		Add(RenameType("minecraft:zombie", "minecraft:husk")).
		Add(DropTypes("minecraft:pig")).
		Add(func(rec record.Compound) (record.Compound, bool) {
			rec["Migrated"] = int8(1)
			return rec, true
		})
	d.BlockEntities.Add(RenameField("Items", "Inventory"))

	got := roundTrip(t, sampleMap(), d, Gzip)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "minecraft:husk", got.Entities[0].Type(), "в карту попадает запись после цепочки")
	assert.Equal(t, int8(1), got.Entities[0].Record["Migrated"])

	rec, ok := got.BlockEntity(vec.Vec3{X: 3, Y: 0, Z: 0})
	require.True(t, ok)
	assert.True(t, rec.Has("Inventory"))
	assert.False(t, rec.Has("Items"))
}

func TestMigration_Versioned(t *testing.T) {
	var seen []int
	versioned := func(v int, rec record.Compound) (record.Compound, bool) {
		seen = append(seen, v)
		return rec, true
	}

	d := NewDeserializer(nil)
	d.Entities.AddVersioned(versioned)
	d.Entities.AddVersioned(Before(1, DropTypes("minecraft:zombie")))

	got := roundTrip(t, sampleMap(), d, Gzip)
	assert.Len(t, got.Entities, 2, "файл версии 1 не проходит старую миграцию")

	s := NewSerializer(nil)
	s.WriteVersion = false
	data, err := s.Marshal(sampleMap(), Gzip)
	require.NoError(t, err)
	got, err = d.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, got.Entities, 1, "файл без версии проходит старую миграцию")
	assert.Equal(t, []int{1, 1, 0, 0}, seen)
}

func TestDecode_CorruptEntityListKeepsChunks(t *testing.T) {
	tree, err := NewSerializer(nil).Encode(sampleMap())
	require.NoError(t, err)
	tree["entities"] = "garbage"
	tree["markers"] = []any{map[string]any{"id": "nobody:knows", "Pos": []float64{0, 0, 0}}, int32(5)}
	tree["meta"] = int32(7)

	got, err := NewDeserializer(nil).Decode(tree)
	require.NoError(t, err)
	assert.Empty(t, got.Entities)
	assert.Empty(t, got.Markers, "неизвестный тип маркера пропускается")
	assert.Equal(t, gamemap.DefaultDimension, got.Meta.Dimension)
	assert.Equal(t, 2, got.ChunkCount())
}

func TestDecode_CorruptRecordSkipped(t *testing.T) {
	tree, err := NewSerializer(nil).Encode(sampleMap())
	require.NoError(t, err)
	entities, _ := tree.CompoundList("entities")
	list := []any{map[string]any{"id": "minecraft:pig"}, int32(1)}
	for _, e := range entities {
		list = append(list, map[string]any(e))
	}
	tree["entities"] = list

	got, err := NewDeserializer(nil).Decode(tree)
	require.NoError(t, err)
	assert.Len(t, got.Entities, 2, "записи без Pos и не-compound пропускаются")
}

// corruptSecondChunk портит упакованные данные второй секции
func corruptSecondChunk(t *testing.T) record.Compound {
	t.Helper()
	tree, err := NewSerializer(nil).Encode(sampleMap())
	require.NoError(t, err)

	chunks, ok := tree.CompoundList("chunks")
	require.True(t, ok)
	require.Len(t, chunks, 2)
	body, _ := chunks[1].Compound("chunk")
	blocks, _ := body.Compound("blocks")
	blocks["data"] = []int64{1, 2, 3}

	list := make([]any, len(chunks))
	for i, c := range chunks {
		list[i] = map[string]any(c)
	}
	tree["chunks"] = list
	return tree
}

func TestDecode_CorruptChunk(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		got, err := NewDeserializer(nil).Decode(corruptSecondChunk(t))
		require.NoError(t, err)
		assert.Equal(t, 1, got.ChunkCount(), "целая секция загружена")
		assert.Len(t, got.Entities, 2, "сущности не теряются")
		assert.Len(t, got.Markers, 2, "маркеры не теряются")
	})

	t.Run("strict", func(t *testing.T) {
		d := NewDeserializer(nil)
		d.Strict = true
		_, err := d.Decode(corruptSecondChunk(t))
		var de *errs.DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "chunks[1].chunk.blocks.data", de.Field)
	})

	t.Run("chunks not a list", func(t *testing.T) {
		tree, err := NewSerializer(nil).Encode(sampleMap())
		require.NoError(t, err)
		tree["chunks"] = int32(1)

		got, err := NewDeserializer(nil).Decode(tree)
		require.NoError(t, err)
		assert.Equal(t, 0, got.ChunkCount())
		assert.Len(t, got.Entities, 2)
	})
}

func TestDecode_CorruptChunkLogged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, logging.InitLogger(logging.Options{Level: "debug", Dir: dir, File: "codec.log", Quiet: true}))
	defer logging.CloseLogger()

	_, err := NewDeserializer(nil).Decode(corruptSecondChunk(t))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "codec.log"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Повреждённая секция пропущена")
	assert.Contains(t, text, "chunks[1].chunk.blocks.data")
	assert.Contains(t, text, "Карта v1 декодирована: 1 секций")
}

func TestStateCodec_List(t *testing.T) {
	states := []block.State{
		block.Air,
		block.Stone,
		block.NewState("minecraft:oak_stairs", map[string]string{"half": "top", "facing": "north"}),
	}
	encoded := stateCodec.EncodeList(states)
	tags, ok := encoded.([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "minecraft:oak_stairs", tags[2]["Name"])
	assert.NotContains(t, tags[1], "Properties", "у камня нет свойств")

	decoded, err := stateCodec.DecodeList(encoded)
	require.NoError(t, err)
	assert.Equal(t, states, decoded)

	_, err = stateCodec.DecodeList([]any{map[string]any{"Properties": map[string]any{}}})
	assert.ErrorContains(t, err, "missing Name")
}

func TestDecode_MissingContainersDefault(t *testing.T) {
	tree := map[string]any{
		"chunks": []any{
			map[string]any{"pos": []int32{1, 2, 3}, "chunk": map[string]any{}},
		},
	}
	got, err := NewDeserializer(nil).Decode(tree)
	require.NoError(t, err)
	c, ok := got.Chunk(vec.SectionPos{X: 1, Y: 2, Z: 3})
	require.True(t, ok)
	assert.True(t, c.IsEmpty())

	_, err = NewDeserializer(nil).Decode(nil)
	assert.True(t, errs.IsDecode(err))
}

func TestRead_UnknownFormat(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("plain text")))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFile_AtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maps", "arena.gmap")

	require.NoError(t, NewSerializer(nil).SaveFile(path, sampleMap(), Zstd))
	got, err := NewDeserializer(nil).LoadFile(path)
	require.NoError(t, err)
	assertSameMap(t, sampleMap(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "временные файлы не остаются")

	_, err = ReadFile(filepath.Join(dir, "missing.gmap"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, Gzip, c)
	_, err = ParseCompression("lz4")
	assert.Error(t, err)
}
