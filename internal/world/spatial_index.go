package world

import (
	"sort"
	"sync"

	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/google/uuid"
)

// SpatialIndex пространственный индекс сущностей по сетке ячеек в плоскости XZ
type SpatialIndex struct {
	cellSize int
	cells    map[cellKey]*cellData
	cellsMu  sync.RWMutex
	entities map[uuid.UUID]*indexedEntity
	entityMu sync.RWMutex
}

// cellKey ключ ячейки сетки
type cellKey struct {
	x, z int
}

// cellData содержимое ячейки
type cellData struct {
	entities map[uuid.UUID]*MemoryEntity
	mu       sync.RWMutex
}

type indexedEntity struct {
	entity *MemoryEntity
	cell   cellKey
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(cellSize int) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 16 // размер секции по умолчанию
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]*cellData),
		entities: make(map[uuid.UUID]*indexedEntity),
	}
}

func (si *SpatialIndex) keyFor(p vec.Vec3) cellKey {
	return cellKey{x: vec.FloorDiv(p.X, si.cellSize), z: vec.FloorDiv(p.Z, si.cellSize)}
}

func (si *SpatialIndex) getOrCreateCell(key cellKey) *cellData {
	cell, ok := si.cells[key]
	if !ok {
		cell = &cellData{entities: make(map[uuid.UUID]*MemoryEntity)}
		si.cells[key] = cell
	}
	return cell
}

// Insert добавляет сущность; повторная вставка того же ID перемещает её
func (si *SpatialIndex) Insert(e *MemoryEntity) {
	si.Remove(e.ID)

	key := si.keyFor(e.Pos().Floor())

	si.cellsMu.Lock()
	cell := si.getOrCreateCell(key)
	cell.mu.Lock()
	cell.entities[e.ID] = e
	cell.mu.Unlock()
	si.cellsMu.Unlock()

	si.entityMu.Lock()
	si.entities[e.ID] = &indexedEntity{entity: e, cell: key}
	si.entityMu.Unlock()
}

// Move переносит сущность в новую позицию
func (si *SpatialIndex) Move(id uuid.UUID, pos vec.Vec3Float) bool {
	si.entityMu.RLock()
	indexed, ok := si.entities[id]
	si.entityMu.RUnlock()
	if !ok {
		return false
	}

	e := indexed.entity
	e.pos = pos
	si.Insert(e)
	return true
}

// Remove удаляет сущность из индекса
func (si *SpatialIndex) Remove(id uuid.UUID) {
	si.entityMu.Lock()
	indexed, ok := si.entities[id]
	if ok {
		delete(si.entities, id)
	}
	si.entityMu.Unlock()
	if !ok {
		return
	}

	si.cellsMu.Lock()
	defer si.cellsMu.Unlock()
	if cell, exists := si.cells[indexed.cell]; exists {
		cell.mu.Lock()
		delete(cell.entities, id)
		empty := len(cell.entities) == 0
		cell.mu.Unlock()
		if empty {
			delete(si.cells, indexed.cell)
		}
	}
}

// QueryBox сущности, чья позиция блока лежит в боксе (границы включены).
// Результат упорядочен по позиции, затем по ID.
func (si *SpatialIndex) QueryBox(box vec.Box) []*MemoryEntity {
	lo := si.keyFor(box.Min)
	hi := si.keyFor(box.Max)

	var result []*MemoryEntity

	si.cellsMu.RLock()
	for cx := lo.x; cx <= hi.x; cx++ {
		for cz := lo.z; cz <= hi.z; cz++ {
			cell, ok := si.cells[cellKey{x: cx, z: cz}]
			if !ok {
				continue
			}
			cell.mu.RLock()
			for _, e := range cell.entities {
				if box.Contains(e.Pos().Floor()) {
					result = append(result, e)
				}
			}
			cell.mu.RUnlock()
		}
	}
	si.cellsMu.RUnlock()

	sortEntities(result)
	return result
}

// All все сущности индекса
func (si *SpatialIndex) All() []*MemoryEntity {
	si.entityMu.RLock()
	result := make([]*MemoryEntity, 0, len(si.entities))
	for _, indexed := range si.entities {
		result = append(result, indexed.entity)
	}
	si.entityMu.RUnlock()

	sortEntities(result)
	return result
}

// Len число сущностей
func (si *SpatialIndex) Len() int {
	si.entityMu.RLock()
	defer si.entityMu.RUnlock()
	return len(si.entities)
}

func sortEntities(list []*MemoryEntity) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Pos(), list[j].Pos()
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
