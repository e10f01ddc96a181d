// Package marker описывает маркеры карты: неподвижные типизированные аннотации
// с позицией и ориентацией, без игрового поведения.
//
// Типы маркеров регистрируются в Registry (идентификатор -> фабрика).
// Реестр передаётся десериализатору явно, поэтому независимые контексты
// (например, параллельные тесты) не делят изменяемое состояние.
package marker

import (
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
)

// Marker полиморфная аннотация карты
type Marker interface {
	// Type идентификатор типа, под которым зарегистрирована фабрика
	Type() string
	// Anchor позиция и ориентация (изменяемая)
	Anchor() *Pose
	// ReadCustom читает поля конкретного типа
	ReadCustom(rec record.Compound) error
	// WriteCustom пишет поля конкретного типа
	WriteCustom(rec record.Compound)
}

// Pose позиция и ориентация маркера; встраивается в конкретные типы
type Pose struct {
	Pos   vec.Vec3Float
	Yaw   float32
	Pitch float32
}

// Anchor реализует Marker.Anchor для встраивающих типов
func (p *Pose) Anchor() *Pose {
	return p
}

// Translate сдвигает маркер
func (p *Pose) Translate(offset vec.Vec3Float) {
	p.Pos = p.Pos.Add(offset)
}

// Factory создаёт пустой маркер конкретного типа
type Factory func() Marker
