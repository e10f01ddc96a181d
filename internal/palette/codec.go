package palette

import (
	"fmt"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Tnze/go-mc/level"
)

// ValueCodec кодирует список значений палитры в дерево NBT и обратно
type ValueCodec[T comparable] interface {
	EncodeList(values []T) any
	DecodeList(v any) ([]T, error)
}

// Encode сериализует контейнер в составной тег
// {mode: byte, bits: byte, palette: list (нет в direct), data: long array (нет в single)}
func (c *Container[T]) Encode(vc ValueCodec[T]) map[string]any {
	out := map[string]any{
		"mode": int8(c.mode),
		"bits": int8(c.bits),
	}
	if c.mode != ModeDirect {
		out["palette"] = vc.EncodeList(c.palette)
	}
	if c.storage != nil {
		raw := c.storage.Raw()
		data := make([]int64, len(raw))
		for i, u := range raw {
			data[i] = int64(u)
		}
		out["data"] = data
	}
	return out
}

// Decode восстанавливает контейнер из составного тега.
// Ошибки содержат имя проблемного поля (mode, bits, palette, data).
func Decode[T comparable](tree map[string]any, strategy Strategy, registry IDMap[T], vc ValueCodec[T]) (*Container[T], error) {
	tag := record.Compound(tree)

	rawMode, ok := tag.Int("mode")
	if !ok {
		return nil, errs.Decodef("mode", "missing")
	}
	mode := Mode(rawMode)
	width, ok := tag.Int("bits")
	if !ok {
		return nil, errs.Decodef("bits", "missing")
	}

	c := &Container[T]{strategy: strategy, registry: registry, mode: mode, bits: width}

	switch mode {
	case ModeSingle:
		values, err := decodePalette(tag, vc)
		if err != nil {
			return nil, err
		}
		if len(values) != 1 {
			return nil, errs.Decodef("palette", "single mode needs 1 value, got %d", len(values))
		}
		c.bits = 0
		c.palette = values
		return c, nil

	case ModeIndexed:
		if width < 1 || width > 32 {
			return nil, errs.Decodef("bits", "invalid width %d", width)
		}
		values, err := decodePalette(tag, vc)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 || len(values) > 1<<width {
			return nil, errs.Decodef("palette", "%d values do not fit %d bits", len(values), width)
		}
		c.palette = values
		c.index = make(map[T]int, len(values))
		for i, v := range values {
			if _, dup := c.index[v]; dup {
				return nil, errs.Decodef("palette", "duplicate value %v", v)
			}
			c.index[v] = i
		}
		if err := c.decodeData(tag, len(values)); err != nil {
			return nil, err
		}
		return c, nil

	case ModeDirect:
		if registry == nil {
			return nil, errs.Decodef("mode", "direct mode without registry")
		}
		if width < 1 || width > 32 {
			return nil, errs.Decodef("bits", "invalid width %d", width)
		}
		if err := c.decodeData(tag, registry.Size()); err != nil {
			return nil, err
		}
		return c, nil
	}

	return nil, errs.Decodef("mode", "unknown mode %d", rawMode)
}

func decodePalette[T comparable](tag record.Compound, vc ValueCodec[T]) ([]T, error) {
	raw, ok := tag["palette"]
	if !ok {
		return nil, errs.Decodef("palette", "missing")
	}
	values, err := vc.DecodeList(raw)
	if err != nil {
		return nil, errs.Decode("palette", err)
	}
	return values, nil
}

// decodeData читает упакованный массив и проверяет, что каждый индекс меньше limit
func (c *Container[T]) decodeData(tag record.Compound, limit int) error {
	data, ok := tag.LongArray("data")
	if !ok {
		return errs.Decodef("data", "missing")
	}
	perLong := 64 / c.bits
	expected := (Volume + perLong - 1) / perLong
	if len(data) != expected {
		return errs.Decodef("data", "expected %d longs for %d bits, got %d", expected, c.bits, len(data))
	}

	raw := make([]uint64, len(data))
	for i, v := range data {
		raw[i] = uint64(v)
	}
	c.storage = level.NewBitStorage(c.bits, Volume, raw)

	for i := 0; i < Volume; i++ {
		if idx := c.storage.Get(i); idx >= limit {
			return errs.Decodef("data", "cell %d: index %d out of range %d", i, idx, limit)
		}
	}
	return nil
}

// StringCodec кодирует значения со строковым представлением списком TAG_String
type StringCodec[T ~string] struct{}

func (StringCodec[T]) EncodeList(values []T) any {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func (StringCodec[T]) DecodeList(v any) ([]T, error) {
	items, ok := record.AsList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]T, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected string, got %T", i, it)
		}
		out[i] = T(s)
	}
	return out, nil
}
