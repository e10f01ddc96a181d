// Package record реализует непрозрачные структурированные записи (деревья NBT).
//
// Запись сущности или блок-сущности хранится как Compound без фиксированной
// схемы. Доступ к полям терпим к ширине числовых типов: после универсального
// декодирования одно и то же поле может прийти как int8, int32 или int64.
package record

import (
	"reflect"
	"sort"
)

// Compound составной тег: имя поля -> значение
type Compound map[string]any

// Has проверяет наличие поля
func (c Compound) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Remove удаляет поле
func (c Compound) Remove(key string) {
	delete(c, key)
}

// Keys возвращает отсортированный список полей
func (c Compound) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int читает целое поле любой ширины
func (c Compound) Int(key string) (int, bool) {
	v, ok := AsInt64(c[key])
	return int(v), ok
}

// Long читает 64-битное целое
func (c Compound) Long(key string) (int64, bool) {
	return AsInt64(c[key])
}

// Double читает число с плавающей точкой
func (c Compound) Double(key string) (float64, bool) {
	return AsFloat64(c[key])
}

// Float читает число одинарной точности
func (c Compound) Float(key string) (float32, bool) {
	v, ok := AsFloat64(c[key])
	return float32(v), ok
}

// Bool читает байтовый флаг
func (c Compound) Bool(key string) (bool, bool) {
	v, ok := AsInt64(c[key])
	return v != 0, ok
}

// String читает строковое поле
func (c Compound) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Compound читает вложенную запись
func (c Compound) Compound(key string) (Compound, bool) {
	return AsCompound(c[key])
}

// List читает список произвольных значений
func (c Compound) List(key string) ([]any, bool) {
	return AsList(c[key])
}

// CompoundList читает список записей; элементы другого типа приводят к отказу
func (c Compound) CompoundList(key string) ([]Compound, bool) {
	items, ok := AsList(c[key])
	if !ok {
		return nil, false
	}
	out := make([]Compound, 0, len(items))
	for _, it := range items {
		sub, ok := AsCompound(it)
		if !ok {
			return nil, false
		}
		out = append(out, sub)
	}
	return out, true
}

// DoubleList читает список чисел с плавающей точкой
func (c Compound) DoubleList(key string) ([]float64, bool) {
	items, ok := AsList(c[key])
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		f, ok := AsFloat64(it)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// FloatList читает список float32
func (c Compound) FloatList(key string) ([]float32, bool) {
	d, ok := c.DoubleList(key)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(d))
	for i, f := range d {
		out[i] = float32(f)
	}
	return out, true
}

// IntArray читает массив целых (TAG_Int_Array или список целых)
func (c Compound) IntArray(key string) ([]int, bool) {
	items, ok := AsList(c[key])
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(items))
	for _, it := range items {
		n, ok := AsInt64(it)
		if !ok {
			return nil, false
		}
		out = append(out, int(n))
	}
	return out, true
}

// LongArray читает массив 64-битных целых
func (c Compound) LongArray(key string) ([]int64, bool) {
	switch v := c[key].(type) {
	case []int64:
		return v, true
	case []uint64:
		out := make([]int64, len(v))
		for i, u := range v {
			out[i] = int64(u)
		}
		return out, true
	}
	items, ok := AsList(c[key])
	if !ok {
		return nil, false
	}
	out := make([]int64, 0, len(items))
	for _, it := range items {
		n, ok := AsInt64(it)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// IntTriple читает три целых поля (например x, y, z)
func (c Compound) IntTriple(kx, ky, kz string) (x, y, z int, ok bool) {
	var okX, okY, okZ bool
	x, okX = c.Int(kx)
	y, okY = c.Int(ky)
	z, okZ = c.Int(kz)
	return x, y, z, okX && okY && okZ
}

// SetIntTriple записывает три целых поля как TAG_Int
func (c Compound) SetIntTriple(kx, ky, kz string, x, y, z int) {
	c[kx] = int32(x)
	c[ky] = int32(y)
	c[kz] = int32(z)
}

// SetDoubleList записывает список TAG_Double
func (c Compound) SetDoubleList(key string, values ...float64) {
	c[key] = append([]float64(nil), values...)
}

// SetFloatList записывает список TAG_Float
func (c Compound) SetFloatList(key string, values ...float32) {
	c[key] = append([]float32(nil), values...)
}

// Clone глубокая копия записи
func (c Compound) Clone() Compound {
	if c == nil {
		return nil
	}
	out := make(Compound, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Compound:
		return t.Clone()
	case map[string]any:
		return Compound(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = cloneValue(it)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, it := range t {
			out[i] = Compound(it).Clone()
		}
		return out
	case []Compound:
		out := make([]Compound, len(t))
		for i, it := range t {
			out[i] = it.Clone()
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && !rv.IsNil() {
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(cp, rv)
		return cp.Interface()
	}
	return v
}

// AsInt64 приводит целое любой ширины к int64
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case uint8:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsFloat64 приводит число к float64
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := AsInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// AsCompound приводит значение к записи
func AsCompound(v any) (Compound, bool) {
	switch m := v.(type) {
	case Compound:
		return m, m != nil
	case map[string]any:
		return Compound(m), m != nil
	}
	return nil, false
}

// AsList приводит любой срез к []any
func AsList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, it := range l {
			out[i] = it
		}
		return out, true
	case []Compound:
		out := make([]any, len(l))
		for i, it := range l {
			out[i] = it
		}
		return out, true
	case string:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
