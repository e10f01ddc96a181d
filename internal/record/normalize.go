package record

// Normalize приводит запись к виду, который принимает кодировщик NBT.
//
// Универсальное декодирование отдаёт списки как []any, а кодировщику нужен
// срез конкретного типа, по которому он выбирает тег элемента. Однородные
// списки превращаются в типизированные срезы, вложенные Compound в
// map[string]any, int в int32, bool в int8.
func (c Compound) Normalize() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case Compound:
		return t.Normalize()
	case map[string]any:
		return Compound(t).Normalize()
	case int:
		return int32(t)
	case bool:
		if t {
			return int8(1)
		}
		return int8(0)
	case []Compound:
		out := make([]map[string]any, len(t))
		for i, it := range t {
			out[i] = it.Normalize()
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, it := range t {
			out[i] = Compound(it).Normalize()
		}
		return out
	case []any:
		return normalizeList(t)
	}
	return v
}

func normalizeList(items []any) any {
	if len(items) == 0 {
		return []map[string]any{}
	}

	switch items[0].(type) {
	case map[string]any, Compound:
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			c, ok := AsCompound(it)
			if !ok {
				return items
			}
			out = append(out, c.Normalize())
		}
		return out
	case float64:
		return collect[float64](items)
	case float32:
		return collect[float32](items)
	case string:
		return collect[string](items)
	case int16:
		return collect[int16](items)
	case int32:
		return collect[int32](items)
	case int64:
		return collect[int64](items)
	case int8:
		return collect[int8](items)
	}

	out := make([]any, len(items))
	for i, it := range items {
		out[i] = normalizeValue(it)
	}
	return out
}

// collect собирает однородный список; при смешанных типах возвращает исходный срез
func collect[T any](items []any) any {
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, ok := it.(T)
		if !ok {
			return items
		}
		out = append(out, v)
	}
	return out
}
