package codec

import (
	"fmt"
	"sort"

	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// StateCodec кодирует палитру состояний блоков списком {Name, Properties: {k: v}}
type StateCodec struct{}

func (StateCodec) EncodeList(values []block.State) any {
	out := make([]map[string]any, len(values))
	for i, s := range values {
		out[i] = encodeStateTag(s)
	}
	return out
}

func (StateCodec) DecodeList(v any) ([]block.State, error) {
	items, ok := record.AsList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]block.State, len(items))
	for i, it := range items {
		tag, ok := record.AsCompound(it)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected compound, got %T", i, it)
		}
		s, err := decodeStateTag(tag)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func encodeStateTag(s block.State) map[string]any {
	tag := map[string]any{"Name": s.Name}
	if props := s.PropertyMap(); len(props) > 0 {
		p := make(map[string]any, len(props))
		for k, v := range props {
			p[k] = v
		}
		tag["Properties"] = p
	}
	return tag
}

func decodeStateTag(tag record.Compound) (block.State, error) {
	name, ok := tag.String("Name")
	if !ok || name == "" {
		return block.State{}, fmt.Errorf("missing Name")
	}
	var props map[string]string
	if p, ok := tag.Compound("Properties"); ok {
		props = make(map[string]string, len(p))
		keys := p.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			v, ok := p.String(k)
			if !ok {
				return block.State{}, fmt.Errorf("property %s: expected string", k)
			}
			props[k] = v
		}
	}
	return block.NewState(name, props), nil
}

// BiomeCodec кодирует палитру биомов списком строк
type BiomeCodec = palette.StringCodec[block.Biome]

var (
	stateCodec StateCodec
	biomeCodec BiomeCodec
)
