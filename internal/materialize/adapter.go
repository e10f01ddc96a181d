// Package materialize выдаёт содержимое неизменяемой карты движку мира по
// запросу: секция за секцией, без предварительной записи всей карты.
package materialize

import (
	"fmt"
	"runtime"

	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
	"golang.org/x/sync/errgroup"
)

var logger = logging.GetComponentLogger("materialize")

// Config параметры адаптера
type Config struct {
	// Workers ограничение параллельных секций в PopulateNoise; 0 - число CPU
	Workers int
	// MinY, MaxY включительный диапазон высот; оба 0 - по границам карты
	MinY, MaxY int
}

// Cell непустая ячейка секции
type Cell struct {
	Local vec.Vec3
	State block.State
}

// SectionData содержимое одной секции для движка
type SectionData struct {
	Pos   vec.SectionPos
	Cells []Cell
	// BlockEntities клоны записей с глобальными x, y, z
	BlockEntities []record.Compound

	OceanFloor   *Heightmap
	WorldSurface *Heightmap
}

// Adapter ленивое представление карты. Карта не должна меняться, пока
// адаптер используется: кеш высот никогда не инвалидируется.
type Adapter struct {
	m   *gamemap.GameMap
	cfg Config

	lo, hi    vec.SectionPos
	hasChunks bool

	heights HeightCache
}

// NewAdapter создаёт адаптер над картой m
func NewAdapter(m *gamemap.GameMap, cfg Config) *Adapter {
	a := &Adapter{m: m}
	a.lo, a.hi, a.hasChunks = m.ChunkBounds()

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MinY == 0 && cfg.MaxY == 0 && a.hasChunks {
		cfg.MinY = a.lo.Y << 4
		cfg.MaxY = a.hi.Y<<4 | 15
	}
	if cfg.MaxY < cfg.MinY {
		cfg.MinY, cfg.MaxY = cfg.MaxY, cfg.MinY
	}
	a.cfg = cfg

	logger.Debug("Адаптер: границы %v..%v, y %d..%d, воркеров %d", a.lo, a.hi, cfg.MinY, cfg.MaxY, cfg.Workers)
	return a
}

// Map исходная карта
func (a *Adapter) Map() *gamemap.GameMap { return a.m }

// Config действующие параметры после подстановки значений по умолчанию
func (a *Adapter) Config() Config { return a.cfg }

// Bounds включительные границы секций карты; ok=false для пустой карты
func (a *Adapter) Bounds() (lo, hi vec.SectionPos, ok bool) {
	return a.lo, a.hi, a.hasChunks
}

// InColumnBounds попадает ли колонка (x, z) в границы карты
func (a *Adapter) InColumnBounds(x, z int) bool {
	if !a.hasChunks {
		return false
	}
	minX, maxX := a.lo.X<<4, a.hi.X<<4|15
	minZ, maxZ := a.lo.Z<<4, a.hi.Z<<4|15
	return minX <= x && x <= maxX && minZ <= z && z <= maxZ
}

// NewProtoChunk создаёт буфер колонки секций (cx, cz) на диапазон высот адаптера
func (a *Adapter) NewProtoChunk(cx, cz int) *ProtoChunk {
	return NewProtoChunk(cx, cz, a.cfg.MinY, a.cfg.MaxY, a.m.States)
}

// Request отдаёт содержимое секции pos. false - в карте нет такой секции.
func (a *Adapter) Request(pos vec.SectionPos) (*SectionData, bool) {
	c, ok := a.m.Chunk(pos)
	if !ok {
		return nil, false
	}
	d := &SectionData{
		Pos:          pos,
		OceanFloor:   NewHeightmap(OceanFloor, a.cfg.MinY),
		WorldSurface: NewHeightmap(WorldSurface, a.cfg.MinY),
	}
	origin := pos.Origin()
	for i := 0; i < palette.Volume; i++ {
		s := c.Blocks.At(i)
		if s.IsAir() {
			continue
		}
		x, y, z := palette.Unindex(i)
		d.Cells = append(d.Cells, Cell{Local: vec.Vec3{X: x, Y: y, Z: z}, State: s})
		d.OceanFloor.Track(x, origin.Y+y, z, s)
		d.WorldSurface.Track(x, origin.Y+y, z, s)
	}
	d.BlockEntities = globalBlockEntities(c, origin)
	return d, true
}

// PopulateNoise копирует в proto все секции карты из его колонки.
// Каждая секция копируется отдельной задачей под своей блокировкой.
func (a *Adapter) PopulateNoise(proto *ProtoChunk) error {
	g := new(errgroup.Group)
	g.SetLimit(a.cfg.Workers)

	for _, sy := range proto.SectionYs() {
		pos := vec.SectionPos{X: proto.X, Y: sy, Z: proto.Z}
		c, ok := a.m.Chunk(pos)
		if !ok {
			continue
		}
		dst := proto.Section(sy)
		g.Go(func() error {
			return a.copySection(proto, dst, c, pos)
		})
	}
	return g.Wait()
}

func (a *Adapter) copySection(proto *ProtoChunk, dst *ProtoSection, c *gamemap.Chunk, pos vec.SectionPos) error {
	origin := pos.Origin()

	dst.Lock()
	defer dst.Unlock()

	for i := 0; i < palette.Volume; i++ {
		s := c.Blocks.At(i)
		if s.IsAir() {
			continue
		}
		x, y, z := palette.Unindex(i)
		gy := origin.Y + y
		if gy < a.cfg.MinY || gy > a.cfg.MaxY {
			continue
		}
		if err := dst.blocks.Set(x, y, z, s); err != nil {
			return fmt.Errorf("section %v: %w", pos, err)
		}
		proto.OceanFloor.Track(x, gy, z, s)
		proto.WorldSurface.Track(x, gy, z, s)
	}

	for _, rec := range globalBlockEntities(c, origin) {
		proto.AddPendingBlockEntity(rec)
	}
	metrics.SectionsMaterialized.Inc()
	return nil
}

// PopulateEntities ставит в очередь proto клоны сущностей, попавших в объём колонки
func (a *Adapter) PopulateEntities(proto *ProtoChunk) {
	box := vec.Box{
		Min: vec.Vec3{X: proto.X << 4, Y: a.cfg.MinY, Z: proto.Z << 4},
		Max: vec.Vec3{X: proto.X<<4 | 15, Y: a.cfg.MaxY, Z: proto.Z<<4 | 15},
	}
	for _, e := range a.m.EntitiesIn(box) {
		proto.AddEntity(e.CreateRecord(vec.Vec3Float{}))
	}
}

// Height высота колонки: верхний подходящий блок +1, либо MinY.
// Результат кешируется на всё время жизни адаптера.
func (a *Adapter) Height(x, z int, kind HeightKind) int {
	if !a.InColumnBounds(x, z) {
		return a.cfg.MinY
	}
	return a.heights.GetOrCompute(x, z, kind, func() int {
		return a.scanHeight(x, z, kind)
	})
}

func (a *Adapter) scanHeight(x, z int, kind HeightKind) int {
	top, ok := a.m.TopY(x, z, kind.Matches)
	if !ok || top < a.cfg.MinY {
		return a.cfg.MinY
	}
	if top <= a.cfg.MaxY {
		return top + 1
	}
	// над диапазоном адаптера тоже есть блоки; ищем внутри диапазона
	for y := a.cfg.MaxY; y >= a.cfg.MinY; y-- {
		if kind.Matches(a.m.BlockState(vec.Vec3{X: x, Y: y, Z: z})) {
			return y + 1
		}
	}
	return a.cfg.MinY
}

// HeightCache кеш высот адаптера
func (a *Adapter) HeightCache() *HeightCache { return &a.heights }

// ColumnSample состояния колонки от MinY до MaxY; nil вне границ карты
func (a *Adapter) ColumnSample(x, z int) []block.State {
	if !a.InColumnBounds(x, z) {
		return nil
	}
	column := make([]block.State, a.cfg.MaxY-a.cfg.MinY+1)
	for y := a.cfg.MinY; y <= a.cfg.MaxY; y++ {
		column[y-a.cfg.MinY] = a.m.BlockState(vec.Vec3{X: x, Y: y, Z: z})
	}
	return column
}

// Biome биом карты в точке
func (a *Adapter) Biome(x, y, z int) block.Biome {
	return a.m.Biome(vec.Vec3{X: x, Y: y, Z: z})
}

// globalBlockEntities клоны блок-сущностей секции с глобальными координатами
func globalBlockEntities(c *gamemap.Chunk, origin vec.Vec3) []record.Compound {
	entries := c.BlockEntities()
	out := make([]record.Compound, 0, len(entries))
	for _, be := range entries {
		if be.Record == nil {
			continue
		}
		rec := be.Record.Clone()
		p := origin.Add(be.Local)
		rec.SetIntTriple("x", "y", "z", p.X, p.Y, p.Z)
		out = append(out, rec)
	}
	return out
}
