package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
	"github.com/google/uuid"
)

// Memory мир в памяти: секции из палитровых контейнеров, блок-сущности и
// пространственный индекс сущностей. Реализует Reader, SectionReader и Writer.
// Используется тестами и демонстрационной командой.
type Memory struct {
	mu sync.RWMutex

	States *block.Registry[block.State]
	Biomes *block.Registry[block.Biome]

	dimension string
	dayTime   int64
	rules     map[string]string

	sections map[vec.SectionPos]*memSection
	entities *SpatialIndex

	// статистика записи
	writes    int
	flagsSeen SetFlags
}

type memSection struct {
	blocks        *palette.Container[block.State]
	biomes        *palette.Container[block.Biome]
	blockEntities map[vec.Vec3]record.Compound // локальная позиция -> запись
}

// NewMemory создаёт пустой мир указанного измерения
func NewMemory(dimension string) *Memory {
	return &Memory{
		States:    block.NewStateRegistry(),
		Biomes:    block.NewBiomeRegistry(),
		dimension: dimension,
		rules:     make(map[string]string),
		sections:  make(map[vec.SectionPos]*memSection),
		entities:  NewSpatialIndex(16),
	}
}

func (w *Memory) sectionAt(pos vec.SectionPos) *memSection {
	s, ok := w.sections[pos]
	if !ok {
		s = &memSection{
			blocks:        palette.New(palette.BlockStrategy, palette.IDMap[block.State](w.States), block.Air),
			biomes:        palette.New(palette.BiomeStrategy, palette.IDMap[block.Biome](w.Biomes), block.DefaultBiome),
			blockEntities: make(map[vec.Vec3]record.Compound),
		}
		w.sections[pos] = s
	}
	return s
}

// SetDayTime задаёт время суток
func (w *Memory) SetDayTime(t int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dayTime = t
}

// SetGameRule задаёт игровое правило
func (w *Memory) SetGameRule(name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rules[name] = value
}

// Dimension идентификатор измерения
func (w *Memory) Dimension() string {
	return w.dimension
}

// DayTime время суток
func (w *Memory) DayTime() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dayTime
}

// GameRules копия игровых правил
func (w *Memory) GameRules() map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]string, len(w.rules))
	for k, v := range w.rules {
		out[k] = v
	}
	return out
}

// BlockState состояние блока
func (w *Memory) BlockState(pos vec.Vec3) block.State {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.sections[pos.Section()]
	if !ok {
		return block.Air
	}
	l := pos.Local()
	return s.blocks.At(palette.Index(l.X, l.Y, l.Z))
}

// Biome биом
func (w *Memory) Biome(pos vec.Vec3) block.Biome {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.sections[pos.Section()]
	if !ok {
		return block.DefaultBiome
	}
	l := pos.Local()
	return s.biomes.At(palette.Index(l.X, l.Y, l.Z))
}

// SetBiome записывает биом
func (w *Memory) SetBiome(pos vec.Vec3, b block.Biome) {
	w.mu.Lock()
	defer w.mu.Unlock()
	l := pos.Local()
	w.sectionAt(pos.Section()).biomes.SetAt(palette.Index(l.X, l.Y, l.Z), b)
}

// BlockEntity копия записи блок-сущности
func (w *Memory) BlockEntity(pos vec.Vec3) (record.Compound, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.sections[pos.Section()]
	if !ok {
		return nil, false
	}
	rec, ok := s.blockEntities[pos.Local()]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// EntitiesIn сущности в боксе
func (w *Memory) EntitiesIn(box vec.Box) []Entity {
	found := w.entities.QueryBox(box)
	out := make([]Entity, len(found))
	for i, e := range found {
		out[i] = e
	}
	return out
}

// Section возвращает живую секцию; блок-сущности отдаются копиями
func (w *Memory) Section(pos vec.SectionPos) (*Section, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.sections[pos]
	if !ok {
		return nil, false
	}
	out := &Section{Blocks: s.blocks, Biomes: s.biomes}
	locals := make([]vec.Vec3, 0, len(s.blockEntities))
	for l := range s.blockEntities {
		locals = append(locals, l)
	}
	sort.Slice(locals, func(i, j int) bool {
		return palette.Index(locals[i].X, locals[i].Y, locals[i].Z) < palette.Index(locals[j].X, locals[j].Y, locals[j].Z)
	})
	for _, l := range locals {
		out.BlockEntities = append(out.BlockEntities, s.blockEntities[l].Clone())
	}
	return out, true
}

// SetBlockState записывает состояние блока.
// Без FlagForceState замена блока удаляет блок-сущность в этой позиции.
func (w *Memory) SetBlockState(pos vec.Vec3, state block.State, flags SetFlags) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.sectionAt(pos.Section())
	l := pos.Local()
	s.blocks.SetAt(palette.Index(l.X, l.Y, l.Z), state)
	if !flags.Has(FlagForceState) {
		delete(s.blockEntities, l)
	}
	w.writes++
	w.flagsSeen |= flags
	return nil
}

// AddBlockEntity сохраняет запись блок-сущности по её глобальным x, y, z
func (w *Memory) AddBlockEntity(rec record.Compound) error {
	x, y, z, ok := rec.IntTriple("x", "y", "z")
	if !ok {
		return fmt.Errorf("block entity without x/y/z")
	}
	pos := vec.Vec3{X: x, Y: y, Z: z}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sectionAt(pos.Section()).blockEntities[pos.Local()] = rec.Clone()
	return nil
}

// SpawnEntity создаёт сущность по записи с полем Pos.
// Сущность и все её пассажиры получают новые UUID.
func (w *Memory) SpawnEntity(rec record.Compound) error {
	pos, ok := rec.DoubleList("Pos")
	if !ok || len(pos) != 3 {
		return fmt.Errorf("entity record without Pos")
	}
	cp := rec.Clone()
	id := assignIdentity(cp)

	e := &MemoryEntity{
		ID:     id,
		pos:    vec.Vec3Float{X: pos[0], Y: pos[1], Z: pos[2]},
		Record: cp,
	}
	w.entities.Insert(e)
	return nil
}

// AddEntity добавляет готовую сущность (игрока, моба) без смены идентичности
func (w *Memory) AddEntity(e *MemoryEntity) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	w.entities.Insert(e)
}

// MoveEntity переносит сущность; false - сущности нет
func (w *Memory) MoveEntity(id uuid.UUID, pos vec.Vec3Float) bool {
	return w.entities.Move(id, pos)
}

// Entities все сущности мира, упорядоченные по позиции
func (w *Memory) Entities() []*MemoryEntity {
	return w.entities.All()
}

// Writes число записей блоков и объединение использованных флагов
func (w *Memory) Writes() (int, SetFlags) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.writes, w.flagsSeen
}

// SectionCount число секций
func (w *Memory) SectionCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sections)
}

// assignIdentity назначает новый UUID записи и её пассажирам
func assignIdentity(rec record.Compound) uuid.UUID {
	id := uuid.New()
	rec["UUID"] = uuidToInts(id)

	if passengers, ok := rec.List("Passengers"); ok {
		for _, p := range passengers {
			if sub, ok := record.AsCompound(p); ok {
				assignIdentity(sub)
			}
		}
	}
	return id
}

// uuidToInts представление UUID в виде четырёх TAG_Int
func uuidToInts(id uuid.UUID) []int32 {
	out := make([]int32, 4)
	for i := 0; i < 4; i++ {
		out[i] = int32(uint32(id[i*4])<<24 | uint32(id[i*4+1])<<16 | uint32(id[i*4+2])<<8 | uint32(id[i*4+3]))
	}
	return out
}

// MemoryEntity сущность мира в памяти
type MemoryEntity struct {
	ID     uuid.UUID
	pos    vec.Vec3Float
	Player bool
	NoSave bool
	Record record.Compound
}

// NewMemoryEntity создаёт сущность с типом id в позиции pos
func NewMemoryEntity(typeID string, pos vec.Vec3Float) *MemoryEntity {
	return &MemoryEntity{
		ID:     uuid.New(),
		pos:    pos,
		Record: record.Compound{"id": typeID},
	}
}

// NewPlayer создаёт игрока
func NewPlayer(name string, pos vec.Vec3Float) *MemoryEntity {
	e := NewMemoryEntity("minecraft:player", pos)
	e.Player = true
	e.Record["Name"] = name
	return e
}

func (e *MemoryEntity) Pos() vec.Vec3Float { return e.pos }

func (e *MemoryEntity) IsPlayer() bool { return e.Player }

// SaveRecord копия записи с текущей позицией и UUID
func (e *MemoryEntity) SaveRecord() (record.Compound, bool) {
	if e.NoSave {
		return nil, false
	}
	rec := e.Record.Clone()
	if rec == nil {
		rec = record.Compound{}
	}
	rec.SetDoubleList("Pos", e.pos.X, e.pos.Y, e.pos.Z)
	if !rec.Has("UUID") {
		rec["UUID"] = uuidToInts(e.ID)
	}
	return rec, true
}
