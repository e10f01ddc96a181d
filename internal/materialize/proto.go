package materialize

import (
	"sort"
	"sync"

	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// ProtoSection секция колонки в процессе генерации
type ProtoSection struct {
	mu     sync.Mutex
	blocks *palette.Container[block.State]
}

// Lock захватывает секцию на время записи
func (s *ProtoSection) Lock() { s.mu.Lock() }

// Unlock освобождает секцию
func (s *ProtoSection) Unlock() { s.mu.Unlock() }

// Blocks контейнер блоков; обращаться под Lock
func (s *ProtoSection) Blocks() *palette.Container[block.State] { return s.blocks }

// ProtoChunk буфер колонки секций (X, Z), который заполняет адаптер.
// Набор секций фиксируется при создании, поэтому карта sections читается без блокировки.
type ProtoChunk struct {
	X, Z       int
	minY, maxY int

	sections map[int]*ProtoSection

	OceanFloor   *Heightmap
	WorldSurface *Heightmap

	mu       sync.Mutex
	pending  []record.Compound
	entities []record.Compound
}

// NewProtoChunk создаёт пустую колонку для высот minY..maxY включительно
func NewProtoChunk(x, z, minY, maxY int, states *block.Registry[block.State]) *ProtoChunk {
	if maxY < minY {
		minY, maxY = maxY, minY
	}
	p := &ProtoChunk{
		X: x, Z: z,
		minY: minY, maxY: maxY,
		sections:     make(map[int]*ProtoSection),
		OceanFloor:   NewHeightmap(OceanFloor, minY),
		WorldSurface: NewHeightmap(WorldSurface, minY),
	}
	var ids palette.IDMap[block.State]
	if states != nil {
		ids = states
	}
	for sy := vec.FloorDiv(minY, 16); sy <= vec.FloorDiv(maxY, 16); sy++ {
		p.sections[sy] = &ProtoSection{blocks: palette.New(palette.BlockStrategy, ids, block.Air)}
	}
	return p
}

// Section секция по координате Y секции; nil вне диапазона
func (p *ProtoChunk) Section(sy int) *ProtoSection {
	return p.sections[sy]
}

// SectionYs координаты Y всех секций по возрастанию
func (p *ProtoChunk) SectionYs() []int {
	ys := make([]int, 0, len(p.sections))
	for sy := range p.sections {
		ys = append(ys, sy)
	}
	sort.Ints(ys)
	return ys
}

// HeightRange нижняя и верхняя высоты колонки
func (p *ProtoChunk) HeightRange() (minY, maxY int) {
	return p.minY, p.maxY
}

// BlockState состояние по глобальной позиции; вне колонки - воздух
func (p *ProtoChunk) BlockState(pos vec.Vec3) block.State {
	if pos.X>>4 != p.X || pos.Z>>4 != p.Z {
		return block.Air
	}
	s := p.sections[pos.Y>>4]
	if s == nil {
		return block.Air
	}
	s.Lock()
	defer s.Unlock()
	l := pos.Local()
	st, _ := s.blocks.Get(l.X, l.Y, l.Z)
	return st
}

// Heightmap карта высот по типу
func (p *ProtoChunk) Heightmap(kind HeightKind) *Heightmap {
	if kind == OceanFloor {
		return p.OceanFloor
	}
	return p.WorldSurface
}

// AddPendingBlockEntity ставит запись блок-сущности в очередь
func (p *ProtoChunk) AddPendingBlockEntity(rec record.Compound) {
	p.mu.Lock()
	p.pending = append(p.pending, rec)
	p.mu.Unlock()
}

// AddEntity ставит запись сущности в очередь
func (p *ProtoChunk) AddEntity(rec record.Compound) {
	p.mu.Lock()
	p.entities = append(p.entities, rec)
	p.mu.Unlock()
}

// PendingBlockEntities копия очереди блок-сущностей, упорядоченная по y, z, x
func (p *ProtoChunk) PendingBlockEntities() []record.Compound {
	p.mu.Lock()
	out := append([]record.Compound(nil), p.pending...)
	p.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		ax, ay, az, _ := out[i].IntTriple("x", "y", "z")
		bx, by, bz, _ := out[j].IntTriple("x", "y", "z")
		if ay != by {
			return ay < by
		}
		if az != bz {
			return az < bz
		}
		return ax < bx
	})
	return out
}

// Entities копия очереди сущностей
func (p *ProtoChunk) Entities() []record.Compound {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]record.Compound(nil), p.entities...)
}
