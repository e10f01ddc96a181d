package world

import (
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// Reader определяет доступ на чтение к живому миру.
// Захват карты читает мир через этот интерфейс и не знает о его устройстве.
type Reader interface {
	// BlockState возвращает состояние блока; незагруженные области - воздух.
	BlockState(pos vec.Vec3) block.State

	// Biome возвращает биом в указанной позиции.
	Biome(pos vec.Vec3) block.Biome

	// BlockEntity возвращает запись блок-сущности, если она есть.
	// Запись содержит глобальные x, y, z.
	BlockEntity(pos vec.Vec3) (record.Compound, bool)

	// EntitiesIn возвращает сущности, чья позиция блока лежит в боксе.
	EntitiesIn(box vec.Box) []Entity

	// Dimension идентификатор измерения мира.
	Dimension() string
}

// TimeSource необязательное расширение Reader: время суток мира
type TimeSource interface {
	DayTime() int64
}

// RuleSource необязательное расширение Reader: игровые правила мира
type RuleSource interface {
	GameRules() map[string]string
}

// Section живая секция мира: палитровые контейнеры и блок-сущности.
// Контейнеры принадлежат миру; захват копирует их, а не изменяет.
type Section struct {
	Blocks        *palette.Container[block.State]
	Biomes        *palette.Container[block.Biome]
	BlockEntities []record.Compound // записи с глобальными x, y, z
}

// SectionReader мир, отдающий секции целиком (для выровненного захвата)
type SectionReader interface {
	Reader

	// Section возвращает секцию; false - секция не загружена или пуста.
	Section(pos vec.SectionPos) (*Section, bool)
}

// SetFlags флаги записи блока
type SetFlags uint8

const (
	// FlagNotifyNeighbors оповестить соседей об изменении
	FlagNotifyNeighbors SetFlags = 1 << iota
	// FlagForceState записать состояние без проверки допустимости
	FlagForceState
	// FlagSkipDrops не создавать выпадающие предметы при замене
	FlagSkipDrops
	// FlagNoObservers не вызывать наблюдателей
	FlagNoObservers
)

// FlagsForce режим быстрой записи, обходящий обычные обновления мира
const FlagsForce = FlagForceState | FlagSkipDrops | FlagNoObservers

// Has проверяет наличие флага
func (f SetFlags) Has(flag SetFlags) bool {
	return f&flag != 0
}

// Writer определяет доступ на запись к живому миру
type Writer interface {
	// SetBlockState записывает состояние блока с указанными флагами.
	SetBlockState(pos vec.Vec3, state block.State, flags SetFlags) error

	// AddBlockEntity создаёт живую блок-сущность по записи с глобальными x, y, z.
	AddBlockEntity(rec record.Compound) error

	// SpawnEntity создаёт сущность (с пассажирами) по записи;
	// мир назначает новую идентичность.
	SpawnEntity(rec record.Compound) error
}

// Entity живая сущность мира
type Entity interface {
	// Pos точная позиция
	Pos() vec.Vec3Float
	// IsPlayer истинно для игроков; игроки никогда не попадают в карту
	IsPlayer() bool
	// SaveRecord полная сериализуемая запись (с пассажирами);
	// false - сущность не подлежит сохранению
	SaveRecord() (record.Compound, bool)
}
