package gamemap

import (
	"sort"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// Chunk секция карты 16x16x16: состояния блоков, биомы и блок-сущности.
// Заполняется в одном потоке при захвате, после чего только читается.
type Chunk struct {
	Blocks *palette.Container[block.State]
	Biomes *palette.Container[block.Biome]

	blockEntities map[vec.Vec3]record.Compound // ключ - локальная позиция 0..15
}

// NewChunk создаёт пустую секцию (воздух, биом по умолчанию)
func NewChunk(states *block.Registry[block.State], biomes *block.Registry[block.Biome]) *Chunk {
	var sm palette.IDMap[block.State]
	if states != nil {
		sm = states
	}
	var bm palette.IDMap[block.Biome]
	if biomes != nil {
		bm = biomes
	}
	return NewChunkFrom(
		palette.New(palette.BlockStrategy, sm, block.Air),
		palette.New(palette.BiomeStrategy, bm, block.DefaultBiome),
	)
}

// NewChunkFrom создаёт секцию из готовых контейнеров
func NewChunkFrom(blocks *palette.Container[block.State], biomes *palette.Container[block.Biome]) *Chunk {
	return &Chunk{
		Blocks:        blocks,
		Biomes:        biomes,
		blockEntities: make(map[vec.Vec3]record.Compound),
	}
}

// BlockState возвращает состояние блока по локальной позиции
func (c *Chunk) BlockState(local vec.Vec3) (block.State, error) {
	return c.Blocks.Get(local.X, local.Y, local.Z)
}

// SetBlockState записывает состояние блока по локальной позиции
func (c *Chunk) SetBlockState(local vec.Vec3, s block.State) error {
	return c.Blocks.Set(local.X, local.Y, local.Z, s)
}

// Biome возвращает биом по локальной позиции
func (c *Chunk) Biome(local vec.Vec3) (block.Biome, error) {
	return c.Biomes.Get(local.X, local.Y, local.Z)
}

// SetBiome записывает биом по локальной позиции
func (c *Chunk) SetBiome(local vec.Vec3, b block.Biome) error {
	return c.Biomes.Set(local.X, local.Y, local.Z, b)
}

// PutBlockEntity сохраняет запись блок-сущности по локальной позиции
func (c *Chunk) PutBlockEntity(local vec.Vec3, rec record.Compound) error {
	if !local.InLocalRange() {
		return errs.LocalBounds(local)
	}
	c.blockEntities[local] = rec
	return nil
}

// PutBlockEntityRecord сохраняет запись, вычисляя локальную позицию из её полей x, y, z
func (c *Chunk) PutBlockEntityRecord(rec record.Compound) error {
	x, y, z, ok := rec.IntTriple("x", "y", "z")
	if !ok {
		return errs.Decodef("blockEntity", "missing x/y/z")
	}
	return c.PutBlockEntity(vec.Vec3{X: x & 15, Y: y & 15, Z: z & 15}, rec)
}

// BlockEntity возвращает запись по локальной позиции
func (c *Chunk) BlockEntity(local vec.Vec3) (record.Compound, bool) {
	rec, ok := c.blockEntities[local]
	return rec, ok
}

// RemoveBlockEntity удаляет запись
func (c *Chunk) RemoveBlockEntity(local vec.Vec3) {
	delete(c.blockEntities, local)
}

// BlockEntityEntry пара (локальная позиция, запись)
type BlockEntityEntry struct {
	Local  vec.Vec3
	Record record.Compound
}

// BlockEntities возвращает записи в порядке линейного индекса ячейки
func (c *Chunk) BlockEntities() []BlockEntityEntry {
	out := make([]BlockEntityEntry, 0, len(c.blockEntities))
	for pos, rec := range c.blockEntities {
		out = append(out, BlockEntityEntry{Local: pos, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Local, out[j].Local
		return palette.Index(a.X, a.Y, a.Z) < palette.Index(b.X, b.Y, b.Z)
	})
	return out
}

// BlockEntityCount количество блок-сущностей
func (c *Chunk) BlockEntityCount() int {
	return len(c.blockEntities)
}

// IsEmpty истинно, если секция целиком из воздуха и без блок-сущностей
func (c *Chunk) IsEmpty() bool {
	if len(c.blockEntities) > 0 {
		return false
	}
	return c.Blocks.Count(func(s block.State) bool { return !s.IsAir() }) == 0
}

// Copy глубокая копия секции
func (c *Chunk) Copy() *Chunk {
	cp := NewChunkFrom(c.Blocks.Copy(), c.Biomes.Copy())
	for pos, rec := range c.blockEntities {
		cp.blockEntities[pos] = rec.Clone()
	}
	return cp
}
