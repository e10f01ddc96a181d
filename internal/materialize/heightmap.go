package materialize

import (
	"sync"
	"sync/atomic"

	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// HeightKind тип карты высот
type HeightKind uint8

const (
	// OceanFloor верхний блок, препятствующий движению (без жидкостей)
	OceanFloor HeightKind = iota
	// WorldSurface верхний не-воздушный блок
	WorldSurface

	heightKinds
)

func (k HeightKind) String() string {
	switch k {
	case OceanFloor:
		return "ocean_floor"
	case WorldSurface:
		return "world_surface"
	default:
		return "unknown"
	}
}

// Matches проверяет, учитывается ли состояние картой высот этого типа
func (k HeightKind) Matches(s block.State) bool {
	switch k {
	case OceanFloor:
		return s.BlocksMotion()
	case WorldSurface:
		return !s.IsAir()
	}
	return false
}

// Heightmap высоты колонок одной секционной колонки 16×16.
// Значение - Y верхнего подходящего блока +1, либо нижняя граница мира.
type Heightmap struct {
	mu     sync.Mutex
	kind   HeightKind
	floor  int
	values [256]int
}

// NewHeightmap создаёт карту высот, заполненную floor
func NewHeightmap(kind HeightKind, floor int) *Heightmap {
	h := &Heightmap{kind: kind, floor: floor}
	for i := range h.values {
		h.values[i] = floor
	}
	return h
}

// Kind тип карты
func (h *Heightmap) Kind() HeightKind { return h.kind }

// Get высота в локальной колонке (lx, lz)
func (h *Heightmap) Get(lx, lz int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.values[(lz&15)<<4|lx&15]
}

// Track учитывает запись состояния s по глобальной высоте y.
// Высота только растёт, поэтому порядок обхода секций не важен.
func (h *Heightmap) Track(lx, y, lz int, s block.State) {
	if !h.kind.Matches(s) {
		return
	}
	i := (lz&15)<<4 | lx&15
	h.mu.Lock()
	if y+1 > h.values[i] {
		h.values[i] = y + 1
	}
	h.mu.Unlock()
}

// Values копия всех значений в порядке z*16+x
func (h *Heightmap) Values() [256]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.values
}

// HeightCache мемоизирует высоты колонок по типу карты.
// Значения вычисляются один раз и не инвалидируются: карта неизменяема.
type HeightCache struct {
	kinds    [heightKinds]sync.Map
	computed atomic.Int64
}

// GetOrCompute возвращает высоту колонки, вычисляя её через fn при первом обращении.
// Гонка первых вычислений допустима: сохраняется первое записанное значение.
func (c *HeightCache) GetOrCompute(x, z int, kind HeightKind, fn func() int) int {
	m := &c.kinds[kind]
	key := vec.ColumnKey(x, z)
	if v, ok := m.Load(key); ok {
		return v.(int)
	}
	c.computed.Add(1)
	v, _ := m.LoadOrStore(key, fn())
	return v.(int)
}

// Computed сколько раз вызывалось вычисление
func (c *HeightCache) Computed() int64 {
	return c.computed.Load()
}

// Len число закешированных колонок для типа kind
func (c *HeightCache) Len(kind HeightKind) int {
	n := 0
	c.kinds[kind].Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
