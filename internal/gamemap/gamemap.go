// Package gamemap содержит модель снимка мира: разреженный набор секций,
// динамические сущности, маркеры и заголовок.
//
// Глобальная координата (x, y, z) лежит в секции (x>>4, y>>4, z>>4) по
// локальной позиции (x&15, y&15, z&15). Отсутствующие секции читаются как
// пустота (воздух, биом по умолчанию).
package gamemap

import (
	"sort"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/gamemap/marker"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// BoundsError и DecodeError - типы ошибок формата карт
type (
	BoundsError = errs.BoundsError
	DecodeError = errs.DecodeError
)

// GameMap снимок области мира
type GameMap struct {
	States *block.Registry[block.State]
	Biomes *block.Registry[block.Biome]

	chunks   map[vec.SectionPos]*Chunk
	Entities []Entity
	Markers  []marker.Marker
	Meta     Meta
}

// New создаёт пустую карту; nil-реестры заменяются новыми
func New(states *block.Registry[block.State], biomes *block.Registry[block.Biome]) *GameMap {
	if states == nil {
		states = block.NewStateRegistry()
	}
	if biomes == nil {
		biomes = block.NewBiomeRegistry()
	}
	return &GameMap{
		States: states,
		Biomes: biomes,
		chunks: make(map[vec.SectionPos]*Chunk),
		Meta:   NewMeta(),
	}
}

// Chunk возвращает секцию без создания
func (m *GameMap) Chunk(pos vec.SectionPos) (*Chunk, bool) {
	c, ok := m.chunks[pos]
	return c, ok
}

// ChunkAt возвращает секцию, создавая пустую при первом обращении
func (m *GameMap) ChunkAt(pos vec.SectionPos) *Chunk {
	c, ok := m.chunks[pos]
	if !ok {
		c = NewChunk(m.States, m.Biomes)
		m.chunks[pos] = c
	}
	return c
}

// PutChunk устанавливает секцию целиком (используется при копировании и загрузке)
func (m *GameMap) PutChunk(pos vec.SectionPos, c *Chunk) {
	m.chunks[pos] = c
}

// ChunkCount число секций
func (m *GameMap) ChunkCount() int {
	return len(m.chunks)
}

// SectionKeys координаты всех секций в детерминированном порядке (Y, Z, X)
func (m *GameMap) SectionKeys() []vec.SectionPos {
	keys := make([]vec.SectionPos, 0, len(m.chunks))
	for k := range m.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// ChunkBounds минимальная и максимальная координаты секций
func (m *GameMap) ChunkBounds() (lo, hi vec.SectionPos, ok bool) {
	first := true
	for k := range m.chunks {
		if first {
			lo, hi, first = k, k, false
			continue
		}
		lo = vec.SectionPos{X: min(lo.X, k.X), Y: min(lo.Y, k.Y), Z: min(lo.Z, k.Z)}
		hi = vec.SectionPos{X: max(hi.X, k.X), Y: max(hi.Y, k.Y), Z: max(hi.Z, k.Z)}
	}
	return lo, hi, !first
}

// BlockState состояние блока по глобальной позиции; вне секций - воздух
func (m *GameMap) BlockState(pos vec.Vec3) block.State {
	c, ok := m.chunks[pos.Section()]
	if !ok {
		return block.Air
	}
	l := pos.Local()
	s, _ := c.BlockState(l)
	return s
}

// SetBlockState записывает состояние блока, создавая секцию при необходимости
func (m *GameMap) SetBlockState(pos vec.Vec3, s block.State) {
	// локальная позиция всегда в 0..15, ошибки границ быть не может
	_ = m.ChunkAt(pos.Section()).SetBlockState(pos.Local(), s)
}

// Biome биом по глобальной позиции; вне секций - биом по умолчанию
func (m *GameMap) Biome(pos vec.Vec3) block.Biome {
	c, ok := m.chunks[pos.Section()]
	if !ok {
		return block.DefaultBiome
	}
	b, _ := c.Biome(pos.Local())
	return b
}

// SetBiome записывает биом по глобальной позиции
func (m *GameMap) SetBiome(pos vec.Vec3, b block.Biome) {
	_ = m.ChunkAt(pos.Section()).SetBiome(pos.Local(), b)
}

// BlockEntity запись блок-сущности по глобальной позиции
func (m *GameMap) BlockEntity(pos vec.Vec3) (record.Compound, bool) {
	c, ok := m.chunks[pos.Section()]
	if !ok {
		return nil, false
	}
	return c.BlockEntity(pos.Local())
}

// PutBlockEntity сохраняет запись блок-сущности по глобальной позиции
func (m *GameMap) PutBlockEntity(pos vec.Vec3, rec record.Compound) {
	_ = m.ChunkAt(pos.Section()).PutBlockEntity(pos.Local(), rec)
}

// AddEntity добавляет сущность в конец списка
func (m *GameMap) AddEntity(e Entity) {
	m.Entities = append(m.Entities, e)
}

// AddMarker добавляет маркер в конец списка
func (m *GameMap) AddMarker(mk marker.Marker) {
	m.Markers = append(m.Markers, mk)
}

// EntitiesIn сущности, чья позиция блока лежит в боксе (границы включены)
func (m *GameMap) EntitiesIn(box vec.Box) []Entity {
	var out []Entity
	for _, e := range m.Entities {
		if box.Contains(e.BlockPos()) {
			out = append(out, e)
		}
	}
	return out
}

// TopY ищет сверху вниз самый верхний блок колонки (x, z), удовлетворяющий pred.
// Просматриваются только существующие секции.
func (m *GameMap) TopY(x, z int, pred func(block.State) bool) (int, bool) {
	sx, sz := x>>4, z>>4
	lx, lz := x&15, z&15

	var ys []int
	for k := range m.chunks {
		if k.X == sx && k.Z == sz {
			ys = append(ys, k.Y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	for _, sy := range ys {
		c := m.chunks[vec.SectionPos{X: sx, Y: sy, Z: sz}]
		for ly := 15; ly >= 0; ly-- {
			s, _ := c.Blocks.Get(lx, ly, lz)
			if pred(s) {
				return sy<<4 | ly, true
			}
		}
	}
	return 0, false
}
