package gamemap

import (
	"sort"

	"github.com/Betrayd/game-maps/internal/record"
)

// DefaultDimension измерение по умолчанию
const DefaultDimension = "minecraft:overworld"

// Meta заголовок карты
type Meta struct {
	// Dimension идентификатор измерения исходного мира
	Dimension string
	// Custom произвольные данные автора карты; не пишется, если пуст
	Custom record.Compound
	// DayTime время суток исходного мира (0 - не задано)
	DayTime int64
	// GameRules игровые правила исходного мира
	GameRules map[string]string
}

// NewMeta возвращает заголовок со значениями по умолчанию
func NewMeta() Meta {
	return Meta{Dimension: DefaultDimension}
}

// HasCustom проверяет наличие пользовательских данных
func (m Meta) HasCustom() bool {
	return len(m.Custom) > 0
}

// RuleNames возвращает отсортированные имена правил
func (m Meta) RuleNames() []string {
	names := make([]string, 0, len(m.GameRules))
	for k := range m.GameRules {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
