// Package codec переводит GameMap в дерево NBT и обратно, а также читает и
// пишет сжатые файлы карт.
//
// Верхний уровень файла: meta, chunks (список {pos, chunk}), entities,
// markers. Необязательные поля: version и registries. Второе поле появляется,
// только если хотя бы один контейнер хранится в прямом режиме.
package codec

import (
	"errors"

	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/gamemap/marker"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// FormatVersion текущая версия формата, которую пишет сериализатор
const FormatVersion = 1

var logger = logging.GetCodecLogger()

// Serializer кодирует GameMap в дерево NBT
type Serializer struct {
	Markers *marker.Registry
	// WriteVersion записывать поле version
	WriteVersion bool
}

// NewSerializer создаёт сериализатор; nil-реестр маркеров заменяется реестром по умолчанию
func NewSerializer(markers *marker.Registry) *Serializer {
	if markers == nil {
		markers = marker.NewDefaultRegistry()
	}
	return &Serializer{Markers: markers, WriteVersion: true}
}

// encodeState состояние одного вызова Encode: реестры прямого режима файла
type encodeState struct {
	states *block.Registry[block.State]
	biomes *block.Registry[block.Biome]
	direct bool
}

// Encode строит дерево карты. Результат готов для nbt.Encoder.
func (s *Serializer) Encode(m *gamemap.GameMap) (record.Compound, error) {
	if m == nil {
		return nil, errors.New("encode: nil map")
	}
	st := &encodeState{
		states: block.NewStateRegistry(),
		biomes: block.NewBiomeRegistry(),
	}

	tree := record.Compound{
		"meta": encodeMeta(m.Meta),
	}
	if s.WriteVersion {
		tree["version"] = int32(FormatVersion)
	}

	keys := m.SectionKeys()
	chunks := make([]map[string]any, 0, len(keys))
	for _, pos := range keys {
		c, _ := m.Chunk(pos)
		chunks = append(chunks, map[string]any{
			"pos":   []int32{int32(pos.X), int32(pos.Y), int32(pos.Z)},
			"chunk": st.encodeChunk(c),
		})
	}
	tree["chunks"] = chunks

	entities := make([]map[string]any, 0, len(m.Entities))
	for _, e := range m.Entities {
		rec := e.CreateRecord(vec.Vec3Float{})
		entities = append(entities, rec.Normalize())
	}
	tree["entities"] = entities

	markers := make([]map[string]any, 0, len(m.Markers))
	for _, mk := range m.Markers {
		markers = append(markers, s.Markers.Encode(mk).Normalize())
	}
	tree["markers"] = markers

	if st.direct {
		tree["registries"] = map[string]any{
			"blocks": stateCodec.EncodeList(registryValues(st.states)),
			"biomes": biomeCodec.EncodeList(registryValues(st.biomes)),
		}
	}

	logger.Debug("Карта закодирована: %d секций, %d сущностей, %d маркеров, прямой режим=%v",
		len(chunks), len(entities), len(markers), st.direct)
	return record.Compound(tree.Normalize()), nil
}

func (st *encodeState) encodeChunk(c *gamemap.Chunk) map[string]any {
	blocks := c.Blocks
	if blocks.Mode() == palette.ModeDirect {
		blocks = blocks.Rebind(st.states)
		st.direct = true
	}
	biomes := c.Biomes
	if biomes.Mode() == palette.ModeDirect {
		biomes = biomes.Rebind(st.biomes)
		st.direct = true
	}

	entries := c.BlockEntities()
	blockEntities := make([]map[string]any, 0, len(entries))
	for _, be := range entries {
		rec := be.Record.Clone()
		rec.SetIntTriple("x", "y", "z", be.Local.X, be.Local.Y, be.Local.Z)
		blockEntities = append(blockEntities, rec.Normalize())
	}

	return map[string]any{
		"blocks":        blocks.Encode(stateCodec),
		"biomes":        biomes.Encode(biomeCodec),
		"blockEntities": blockEntities,
	}
}

func encodeMeta(meta gamemap.Meta) map[string]any {
	dim := meta.Dimension
	if dim == "" {
		dim = gamemap.DefaultDimension
	}
	out := map[string]any{"dimension": dim}
	if meta.HasCustom() {
		out["custom"] = meta.Custom.Normalize()
	}
	if meta.DayTime != 0 {
		out["dayTime"] = meta.DayTime
	}
	if len(meta.GameRules) > 0 {
		rules := make(map[string]any, len(meta.GameRules))
		for k, v := range meta.GameRules {
			rules[k] = v
		}
		out["gameRules"] = rules
	}
	return out
}

func registryValues[T comparable](r *block.Registry[T]) []T {
	out := make([]T, r.Size())
	for i := range out {
		out[i], _ = r.ByID(i)
	}
	return out
}
