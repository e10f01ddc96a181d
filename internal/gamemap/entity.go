package gamemap

import (
	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
)

// identityFields поля стабильной идентичности, которые не сохраняются в карте.
// При повторном создании сущность получает новую идентичность.
var identityFields = []string{"UUID", "UUIDMost", "UUIDLeast"}

// Entity динамическая сущность карты: позиция + полная сериализованная запись
type Entity struct {
	Pos    vec.Vec3Float
	Record record.Compound
}

// NewEntity создаёт сущность, удаляя поля идентичности из копии записи
// (включая пассажиров на любой глубине)
func NewEntity(pos vec.Vec3Float, rec record.Compound) Entity {
	cp := rec.Clone()
	if cp == nil {
		cp = record.Compound{}
	}
	stripIdentity(cp)
	return Entity{Pos: pos, Record: cp}
}

func stripIdentity(rec record.Compound) {
	for _, f := range identityFields {
		delete(rec, f)
	}
	passengers, ok := rec.List("Passengers")
	if !ok {
		return
	}
	for _, p := range passengers {
		if sub, ok := record.AsCompound(p); ok {
			stripIdentity(sub)
		}
	}
}

// EntityFromRecord читает сущность из записи карты (позиция в поле Pos)
func EntityFromRecord(rec record.Compound) (Entity, error) {
	pos, ok := rec.DoubleList("Pos")
	if !ok {
		return Entity{}, errs.Decodef("Pos", "missing or not a number list")
	}
	if len(pos) != 3 {
		return Entity{}, errs.Decodef("Pos", "expected 3 components, got %d", len(pos))
	}
	return NewEntity(vec.Vec3Float{X: pos[0], Y: pos[1], Z: pos[2]}, rec), nil
}

// Type возвращает дискриминатор типа сущности (поле id)
func (e Entity) Type() string {
	id, _ := e.Record.String("id")
	return id
}

// BlockPos позиция блока, содержащего сущность
func (e Entity) BlockPos() vec.Vec3 {
	return e.Pos.Floor()
}

// CreateRecord возвращает копию записи, смещённую на offset.
// Поле Pos получает новую позицию; TileX/Y/Z (подвешенные сущности) смещаются тоже.
func (e Entity) CreateRecord(offset vec.Vec3Float) record.Compound {
	rec := e.Record.Clone()
	if rec == nil {
		rec = record.Compound{}
	}
	pos := e.Pos.Add(offset)
	rec.SetDoubleList("Pos", pos.X, pos.Y, pos.Z)

	if tx, ty, tz, ok := rec.IntTriple("TileX", "TileY", "TileZ"); ok {
		shift := offset.Floor()
		rec.SetIntTriple("TileX", "TileY", "TileZ", tx+shift.X, ty+shift.Y, tz+shift.Z)
	}
	return rec
}

// Translated возвращает сущность, сдвинутую на offset
func (e Entity) Translated(offset vec.Vec3Float) Entity {
	return Entity{Pos: e.Pos.Add(offset), Record: e.CreateRecord(offset)}
}
