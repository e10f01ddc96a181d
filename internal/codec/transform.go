package codec

import (
	"github.com/Betrayd/game-maps/internal/record"
)

// Transform шаг миграции записи: возвращает новую запись или false, чтобы её отбросить.
// Отброшенная запись не вставляется в карту и не считается ошибкой.
type Transform func(rec record.Compound) (record.Compound, bool)

// VersionedTransform шаг миграции, которому известна версия формата файла
// (0, если поле version отсутствует).
type VersionedTransform func(version int, rec record.Compound) (record.Compound, bool)

// Chain упорядоченная цепочка миграций
type Chain struct {
	steps []VersionedTransform
}

// Add добавляет шаг в конец цепочки
func (c *Chain) Add(t Transform) *Chain {
	c.steps = append(c.steps, func(_ int, rec record.Compound) (record.Compound, bool) {
		return t(rec)
	})
	return c
}

// AddVersioned добавляет шаг, получающий версию формата
func (c *Chain) AddVersioned(t VersionedTransform) *Chain {
	c.steps = append(c.steps, t)
	return c
}

// Len число шагов
func (c *Chain) Len() int {
	return len(c.steps)
}

// Apply прогоняет запись через все шаги по порядку.
// Первый отбросивший шаг прерывает цепочку.
func (c *Chain) Apply(version int, rec record.Compound) (record.Compound, bool) {
	for _, step := range c.steps {
		next, ok := step(version, rec)
		if !ok || next == nil {
			return nil, false
		}
		rec = next
	}
	return rec, true
}

// DropTypes отбрасывает записи с перечисленными значениями поля id
func DropTypes(ids ...string) Transform {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(rec record.Compound) (record.Compound, bool) {
		id, _ := rec.String("id")
		if _, drop := set[id]; drop {
			return nil, false
		}
		return rec, true
	}
}

// RenameType заменяет значение поля id
func RenameType(from, to string) Transform {
	return func(rec record.Compound) (record.Compound, bool) {
		if id, _ := rec.String("id"); id == from {
			rec["id"] = to
		}
		return rec, true
	}
}

// RenameField переносит значение поля from в поле to, если to ещё не задано
func RenameField(from, to string) Transform {
	return func(rec record.Compound) (record.Compound, bool) {
		v, ok := rec[from]
		if !ok {
			return rec, true
		}
		delete(rec, from)
		if !rec.Has(to) {
			rec[to] = v
		}
		return rec, true
	}
}

// Before применяет t только к файлам с версией меньше version
// (в том числе к файлам без поля version)
func Before(version int, t Transform) VersionedTransform {
	return func(v int, rec record.Compound) (record.Compound, bool) {
		if v >= version {
			return rec, true
		}
		return t(rec)
	}
}
