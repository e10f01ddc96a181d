// Package errs содержит типизированные ошибки формата карт.
//
// BoundsError - координата вне допустимого диапазона (локальный куб 0..16
// или объявленный бокс захвата). Всегда фатальна для операции.
//
// DecodeError - повреждённое или усечённое содержимое бинарного дерева.
// Несёт путь к проблемному полю, например "chunks[3].chunk.blocks.data".
package errs

import (
	"errors"
	"fmt"

	"github.com/Betrayd/game-maps/internal/vec"
)

// BoundsError координата вне допустимого диапазона
type BoundsError struct {
	What string   // что проверялось: "local", "capture box", ...
	Pos  vec.Vec3 // проверяемая позиция
	Min  vec.Vec3 // включительно
	Max  vec.Vec3 // включительно
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s position %v out of bounds [%v..%v]", e.What, e.Pos, e.Min, e.Max)
}

// LocalBounds строит ошибку выхода за локальный куб 16x16x16
func LocalBounds(p vec.Vec3) *BoundsError {
	return &BoundsError{
		What: "local",
		Pos:  p,
		Max:  vec.Vec3{X: 15, Y: 15, Z: 15},
	}
}

// DecodeError ошибка разбора поля бинарного дерева
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode оборачивает err в DecodeError для поля field.
// Если err уже DecodeError, путь к полю наращивается: "chunk" + "blocks" -> "chunk.blocks".
func Decode(field string, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		inner := de.Field
		switch {
		case inner == "":
			inner = field
		case inner[0] == '[':
			inner = field + inner
		default:
			inner = field + "." + inner
		}
		return &DecodeError{Field: inner, Err: de.Err}
	}
	return &DecodeError{Field: field, Err: err}
}

// Decodef создаёт DecodeError с форматированным сообщением
func Decodef(field, format string, args ...any) error {
	return &DecodeError{Field: field, Err: fmt.Errorf(format, args...)}
}

// IsBounds проверяет, что ошибка является BoundsError
func IsBounds(err error) bool {
	var be *BoundsError
	return errors.As(err, &be)
}

// IsDecode проверяет, что ошибка является DecodeError
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
