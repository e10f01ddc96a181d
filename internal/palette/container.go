// Package palette реализует сжатый контейнер 16x16x16 значений с палитрой.
//
// Контейнер хранит только индексы различных значений, упакованные в
// минимальную ширину бит. Режим хранения (single, indexed, direct)
// выбирается автоматически и вызывающему коду не виден.
package palette

import (
	"math/bits"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Tnze/go-mc/level"
)

const (
	// Size сторона секции
	Size = 16
	// Volume число ячеек в контейнере
	Volume = Size * Size * Size
)

// Mode режим хранения
type Mode uint8

const (
	ModeSingle  Mode = iota // одно значение, 0 бит на ячейку
	ModeIndexed             // локальная палитра + индексы
	ModeDirect              // глобальные ID реестра
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeIndexed:
		return "indexed"
	case ModeDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// IDMap глобальный реестр значений, используемый в прямом режиме
type IDMap[T comparable] interface {
	ID(v T) int
	ByID(id int) (T, bool)
	Size() int
}

// Strategy параметры выбора ширины для конкретного домена значений
type Strategy struct {
	Name string
	// MinBits минимальная ширина индекса в режиме палитры
	MinBits int
	// MaxIndexedBits максимальная ширина индекса; при превышении контейнер
	// переходит в прямой режим
	MaxIndexedBits int
}

var (
	// BlockStrategy для состояний блоков
	BlockStrategy = Strategy{Name: "blocks", MinBits: 4, MaxIndexedBits: 8}
	// BiomeStrategy для биомов
	BiomeStrategy = Strategy{Name: "biomes", MinBits: 1, MaxIndexedBits: 3}
)

// Container сжатый массив 4096 значений типа T
type Container[T comparable] struct {
	strategy Strategy
	registry IDMap[T]

	mode    Mode
	bits    int
	palette []T       // single: ровно одно значение; indexed: значения по индексу
	index   map[T]int // обратный индекс палитры (indexed)
	storage *level.BitStorage
}

// New создаёт контейнер, целиком заполненный значением def.
// Без реестра (registry == nil) контейнер никогда не переходит в прямой режим.
func New[T comparable](strategy Strategy, registry IDMap[T], def T) *Container[T] {
	return &Container[T]{
		strategy: strategy,
		registry: registry,
		mode:     ModeSingle,
		palette:  []T{def},
	}
}

// Index линейный индекс ячейки: y<<8 | z<<4 | x
func Index(x, y, z int) int {
	return y<<8 | z<<4 | x
}

// Unindex обратное преобразование линейного индекса
func Unindex(i int) (x, y, z int) {
	return i & 0xF, i >> 8, (i >> 4) & 0xF
}

func checkBounds(x, y, z int) error {
	if x < 0 || x >= Size || y < 0 || y >= Size || z < 0 || z >= Size {
		return errs.LocalBounds(vec.Vec3{X: x, Y: y, Z: z})
	}
	return nil
}

// Get возвращает значение ячейки
func (c *Container[T]) Get(x, y, z int) (T, error) {
	if err := checkBounds(x, y, z); err != nil {
		var zero T
		return zero, err
	}
	return c.At(Index(x, y, z)), nil
}

// At возвращает значение по линейному индексу без проверки границ
func (c *Container[T]) At(i int) T {
	switch c.mode {
	case ModeIndexed:
		return c.palette[c.storage.Get(i)]
	case ModeDirect:
		v, _ := c.registry.ByID(c.storage.Get(i))
		return v
	default:
		return c.palette[0]
	}
}

// Set записывает значение в ячейку, расширяя хранилище при необходимости
func (c *Container[T]) Set(x, y, z int, v T) error {
	if err := checkBounds(x, y, z); err != nil {
		return err
	}
	c.SetAt(Index(x, y, z), v)
	return nil
}

// SetAt записывает значение по линейному индексу без проверки границ
func (c *Container[T]) SetAt(i int, v T) {
	switch c.mode {
	case ModeSingle:
		if c.palette[0] == v {
			return
		}
		c.grow(2, v)
		c.SetAt(i, v)

	case ModeIndexed:
		idx, ok := c.index[v]
		if !ok {
			if len(c.palette) == 1<<c.bits {
				c.grow(len(c.palette)+1, v)
				c.SetAt(i, v)
				return
			}
			idx = len(c.palette)
			c.palette = append(c.palette, v)
			c.index[v] = idx
		}
		c.storage.Set(i, idx)

	case ModeDirect:
		id := c.registry.ID(v)
		if id >= 1<<c.bits {
			c.resizeDirect(bitsFor(id + 1))
		}
		c.storage.Set(i, id)
	}
}

// grow переупаковывает хранилище под count значений палитры.
// Порядок палитры сохраняется, поэтому все существующие индексы остаются валидными.
func (c *Container[T]) grow(count int, incoming T) {
	need := max(c.strategy.MinBits, bitsFor(count))
	if need > c.strategy.MaxIndexedBits && c.registry != nil {
		c.toDirect(incoming)
		return
	}

	next := level.NewBitStorage(need, Volume, nil)
	if c.mode == ModeIndexed {
		for i := 0; i < Volume; i++ {
			next.Set(i, c.storage.Get(i))
		}
	} else {
		// из single: все ячейки указывают на индекс 0, новое хранилище уже нулевое
		c.index = map[T]int{c.palette[0]: 0}
	}

	c.mode = ModeIndexed
	c.bits = need
	c.storage = next
}

// directBits ширина глобального ID с учётом ещё не зарегистрированного значения
func (c *Container[T]) directBits(incoming T) int {
	size := c.registry.Size()
	for _, v := range c.palette {
		size = max(size, c.registry.ID(v)+1)
	}
	return bitsFor(max(size, c.registry.ID(incoming)+1))
}

func (c *Container[T]) toDirect(incoming T) {
	width := c.directBits(incoming)
	next := level.NewBitStorage(width, Volume, nil)
	for i := 0; i < Volume; i++ {
		next.Set(i, c.registry.ID(c.At(i)))
	}

	c.mode = ModeDirect
	c.bits = width
	c.storage = next
	c.palette = nil
	c.index = nil
}

func (c *Container[T]) resizeDirect(width int) {
	next := level.NewBitStorage(width, Volume, nil)
	for i := 0; i < Volume; i++ {
		next.Set(i, c.storage.Get(i))
	}
	c.bits = width
	c.storage = next
}

// bitsFor ceil(log2(n)), минимум 1
func bitsFor(n int) int {
	if n <= 2 {
		return 1
	}
	return bits.Len(uint(n - 1))
}

// Fill заполняет весь контейнер одним значением
func (c *Container[T]) Fill(v T) {
	c.mode = ModeSingle
	c.bits = 0
	c.palette = []T{v}
	c.index = nil
	c.storage = nil
}

// Copy возвращает независимую копию контейнера (агрегатное копирование, без перекодирования ячеек)
func (c *Container[T]) Copy() *Container[T] {
	cp := &Container[T]{
		strategy: c.strategy,
		registry: c.registry,
		mode:     c.mode,
		bits:     c.bits,
	}
	if c.palette != nil {
		cp.palette = append([]T(nil), c.palette...)
	}
	if c.index != nil {
		cp.index = make(map[T]int, len(c.index))
		for k, v := range c.index {
			cp.index[k] = v
		}
	}
	if c.storage != nil {
		cp.storage = level.NewBitStorage(c.bits, Volume, c.storage.Raw())
	}
	return cp
}

// Rebind возвращает копию, привязанную к другому реестру
func (c *Container[T]) Rebind(registry IDMap[T]) *Container[T] {
	if c.mode != ModeDirect {
		cp := c.Copy()
		cp.registry = registry
		return cp
	}

	size := registry.Size()
	for i := 0; i < Volume; i++ {
		size = max(size, registry.ID(c.At(i))+1)
	}
	width := bitsFor(size)
	next := level.NewBitStorage(width, Volume, nil)
	for i := 0; i < Volume; i++ {
		next.Set(i, registry.ID(c.At(i)))
	}
	return &Container[T]{
		strategy: c.strategy,
		registry: registry,
		mode:     ModeDirect,
		bits:     width,
		storage:  next,
	}
}

// ForEach обходит все ячейки в порядке линейного индекса
func (c *Container[T]) ForEach(fn func(x, y, z int, v T)) {
	for i := 0; i < Volume; i++ {
		x, y, z := Unindex(i)
		fn(x, y, z, c.At(i))
	}
}

// Count считает ячейки, удовлетворяющие предикату
func (c *Container[T]) Count(pred func(T) bool) int {
	if c.mode == ModeSingle {
		if pred(c.palette[0]) {
			return Volume
		}
		return 0
	}
	n := 0
	for i := 0; i < Volume; i++ {
		if pred(c.At(i)) {
			n++
		}
	}
	return n
}

// Palette копия палитры; в прямом режиме палитры нет и возвращается nil
func (c *Container[T]) Palette() []T {
	if c.mode == ModeDirect {
		return nil
	}
	return append([]T(nil), c.palette...)
}

// Distinct возвращает различные значения контейнера.
// Для прямого режима требуется полный проход по ячейкам.
func (c *Container[T]) Distinct() []T {
	if c.mode != ModeDirect {
		return append([]T(nil), c.palette...)
	}
	seen := make(map[T]struct{})
	var out []T
	for i := 0; i < Volume; i++ {
		v := c.At(i)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Mode текущий режим хранения
func (c *Container[T]) Mode() Mode { return c.mode }

// Bits текущая ширина записи на ячейку
func (c *Container[T]) Bits() int { return c.bits }

// Registry реестр, к которому привязан контейнер
func (c *Container[T]) Registry() IDMap[T] { return c.registry }

// Strategy стратегия контейнера
func (c *Container[T]) Strategy() Strategy { return c.strategy }

// Equal сравнивает содержимое ячеек, независимо от режима хранения
func (c *Container[T]) Equal(other *Container[T]) bool {
	if c.mode == ModeSingle && other.mode == ModeSingle {
		return c.palette[0] == other.palette[0]
	}
	for i := 0; i < Volume; i++ {
		if c.At(i) != other.At(i) {
			return false
		}
	}
	return true
}
