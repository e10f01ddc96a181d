package block

import (
	"fmt"
	"sort"
	"strings"
)

// State состояние блока: идентификатор и канонические свойства "k=v,...".
// Значение сравнимо и пригодно как ключ палитры.
type State struct {
	Name       string
	Properties string
}

// Стандартные состояния
var (
	Air      = State{Name: "minecraft:air"}
	CaveAir  = State{Name: "minecraft:cave_air"}
	VoidAir  = State{Name: "minecraft:void_air"}
	Stone    = State{Name: "minecraft:stone"}
	Dirt     = State{Name: "minecraft:dirt"}
	Grass    = State{Name: "minecraft:grass_block", Properties: "snowy=false"}
	Sand     = State{Name: "minecraft:sand"}
	Water    = State{Name: "minecraft:water", Properties: "level=0"}
	Lava     = State{Name: "minecraft:lava", Properties: "level=0"}
	Bedrock  = State{Name: "minecraft:bedrock"}
	Chest    = State{Name: "minecraft:chest", Properties: "facing=north,type=single,waterlogged=false"}
	Seagrass = State{Name: "minecraft:seagrass"}
)

// NewState создаёт состояние из имени и набора свойств
func NewState(name string, props map[string]string) State {
	return State{Name: name, Properties: canonicalProperties(props)}
}

// ParseState разбирает строку вида "minecraft:chest[facing=north,type=single]"
func ParseState(s string) (State, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return State{}, fmt.Errorf("empty block state")
	}

	open := strings.IndexByte(s, '[')
	if open < 0 {
		return State{Name: s}, nil
	}
	if !strings.HasSuffix(s, "]") {
		return State{}, fmt.Errorf("block state %q: missing ']'", s)
	}

	props := make(map[string]string)
	body := s[open+1 : len(s)-1]
	if body != "" {
		for _, pair := range strings.Split(body, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || k == "" {
				return State{}, fmt.Errorf("block state %q: bad property %q", s, pair)
			}
			props[k] = v
		}
	}
	return NewState(s[:open], props), nil
}

// String возвращает текстовую форму состояния
func (s State) String() string {
	if s.Properties == "" {
		return s.Name
	}
	return s.Name + "[" + s.Properties + "]"
}

// PropertyMap разворачивает свойства в карту
func (s State) PropertyMap() map[string]string {
	if s.Properties == "" {
		return nil
	}
	props := make(map[string]string)
	for _, pair := range strings.Split(s.Properties, ",") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			props[k] = v
		}
	}
	return props
}

// Property возвращает значение одного свойства
func (s State) Property(key string) (string, bool) {
	v, ok := s.PropertyMap()[key]
	return v, ok
}

// IsAir истинно для всех разновидностей воздуха и для нулевого значения
func (s State) IsAir() bool {
	switch s.Name {
	case "", Air.Name, CaveAir.Name, VoidAir.Name:
		return true
	}
	return false
}

// IsLiquid истинно для жидкостей
func (s State) IsLiquid() bool {
	return s.Name == Water.Name || s.Name == Lava.Name
}

// BlocksMotion грубая оценка "твёрдости" блока для карты высот дна океана
func (s State) BlocksMotion() bool {
	if s.IsAir() || s.IsLiquid() {
		return false
	}
	switch s.Name {
	case Seagrass.Name, "minecraft:tall_seagrass", "minecraft:kelp", "minecraft:kelp_plant",
		"minecraft:grass", "minecraft:short_grass", "minecraft:tall_grass", "minecraft:fern":
		return false
	}
	return true
}

func canonicalProperties(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(props[k])
	}
	return sb.String()
}

// NewStateRegistry реестр состояний; воздух всегда имеет ID 0
func NewStateRegistry() *Registry[State] {
	return NewRegistry(Air)
}
