package codec

import (
	"fmt"

	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/gamemap/marker"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// Deserializer восстанавливает GameMap из дерева NBT.
//
// Каждая запись сущности и блок-сущности проходит через свою цепочку миграций
// до вставки в карту. Повреждённые meta, entities, markers и отдельные секции
// пропускаются с записью в лог. В режиме Strict повреждённая секция прерывает
// загрузку с DecodeError.
type Deserializer struct {
	Markers *marker.Registry
	Strict  bool

	Entities      Chain
	BlockEntities Chain
}

// NewDeserializer создаёт десериализатор; nil-реестр маркеров заменяется реестром по умолчанию
func NewDeserializer(markers *marker.Registry) *Deserializer {
	if markers == nil {
		markers = marker.NewDefaultRegistry()
	}
	return &Deserializer{Markers: markers}
}

// decodeState состояние одного вызова Decode
type decodeState struct {
	version int
	states  *block.Registry[block.State]
	biomes  *block.Registry[block.Biome]
}

// Decode строит карту из дерева. Верхний уровень обязан быть составным тегом.
func (d *Deserializer) Decode(tree map[string]any) (*gamemap.GameMap, error) {
	if tree == nil {
		return nil, errs.Decodef("", "top level is not a compound")
	}
	root := record.Compound(tree)

	st, err := newDecodeState(root)
	if err != nil {
		return nil, err
	}
	m := gamemap.New(st.states, st.biomes)

	if raw, ok := root["meta"]; ok {
		meta, err := decodeMeta(raw)
		if err != nil {
			logger.Warn("Повреждённый заголовок карты пропущен: %v", err)
		} else {
			m.Meta = meta
		}
	}

	if raw, ok := root["chunks"]; ok {
		items, ok := record.AsList(raw)
		if !ok {
			err := errs.Decodef("chunks", "expected list, got %T", raw)
			if d.Strict {
				return nil, err
			}
			logger.Warn("Список секций пропущен: %v", err)
		}
		for i, it := range items {
			if err := d.decodeChunkEntry(m, st, it); err != nil {
				err = errs.Decode(fmt.Sprintf("chunks[%d]", i), err)
				if d.Strict {
					return nil, err
				}
				logger.Warn("Повреждённая секция пропущена: %v", err)
			}
		}
	}

	if raw, ok := root["entities"]; ok {
		d.decodeEntities(m, st, raw)
	}
	if raw, ok := root["markers"]; ok {
		d.decodeMarkers(m, raw)
	}

	logger.Debug("Карта v%d декодирована: %d секций, %d сущностей, %d маркеров",
		st.version, m.ChunkCount(), len(m.Entities), len(m.Markers))
	return m, nil
}

// newDecodeState читает версию и таблицы реестров прямого режима
func newDecodeState(root record.Compound) (*decodeState, error) {
	st := &decodeState{}
	if v, ok := root.Int("version"); ok {
		st.version = v
	}

	tables, ok := root.Compound("registries")
	if !ok {
		st.states = block.NewStateRegistry()
		st.biomes = block.NewBiomeRegistry()
		return st, nil
	}

	states, err := stateCodec.DecodeList(tables["blocks"])
	if err != nil {
		return nil, errs.Decode("registries.blocks", err)
	}
	biomes, err := biomeCodec.DecodeList(tables["biomes"])
	if err != nil {
		return nil, errs.Decode("registries.biomes", err)
	}
	st.states = block.NewRegistry(states...)
	st.biomes = block.NewRegistry(biomes...)
	return st, nil
}

func (d *Deserializer) decodeChunkEntry(m *gamemap.GameMap, st *decodeState, raw any) error {
	entry, ok := record.AsCompound(raw)
	if !ok {
		return fmt.Errorf("expected compound, got %T", raw)
	}
	pos, ok := entry.IntArray("pos")
	if !ok || len(pos) != 3 {
		return errs.Decodef("pos", "expected 3 ints")
	}
	key := vec.SectionPos{X: pos[0], Y: pos[1], Z: pos[2]}

	body, ok := entry.Compound("chunk")
	if !ok {
		return errs.Decodef("chunk", "missing")
	}
	c, err := d.decodeChunk(st, key, body)
	if err != nil {
		return errs.Decode("chunk", err)
	}
	m.PutChunk(key, c)
	return nil
}

// decodeChunk читает секцию; отсутствующие контейнеры заполняются значениями по умолчанию
func (d *Deserializer) decodeChunk(st *decodeState, key vec.SectionPos, body record.Compound) (*gamemap.Chunk, error) {
	blocks := palette.New(palette.BlockStrategy, palette.IDMap[block.State](st.states), block.Air)
	if tag, ok := body.Compound("blocks"); ok {
		c, err := palette.Decode(tag, palette.BlockStrategy, palette.IDMap[block.State](st.states), stateCodec)
		if err != nil {
			return nil, errs.Decode("blocks", err)
		}
		blocks = c
	}

	biomes := palette.New(palette.BiomeStrategy, palette.IDMap[block.Biome](st.biomes), block.DefaultBiome)
	if tag, ok := body.Compound("biomes"); ok {
		c, err := palette.Decode(tag, palette.BiomeStrategy, palette.IDMap[block.Biome](st.biomes), biomeCodec)
		if err != nil {
			return nil, errs.Decode("biomes", err)
		}
		biomes = c
	}

	chunk := gamemap.NewChunkFrom(blocks, biomes)

	if raw, ok := body["blockEntities"]; ok {
		items, ok := record.AsList(raw)
		if !ok {
			return nil, errs.Decodef("blockEntities", "expected list, got %T", raw)
		}
		origin := key.Origin()
		for i, it := range items {
			rec, ok := record.AsCompound(it)
			if !ok {
				logger.Warn("Блок-сущность %d секции %v не является составным тегом, пропущена", i, key)
				continue
			}
			rec, ok = d.BlockEntities.Apply(st.version, rec.Clone())
			if !ok {
				metrics.MigrationDrops.WithLabelValues("block_entity").Inc()
				continue
			}
			lx, ly, lz, ok := rec.IntTriple("x", "y", "z")
			if !ok {
				logger.Warn("Блок-сущность %d секции %v без координат, пропущена", i, key)
				continue
			}
			// в файле координаты локальные, в карте - относительно начала карты
			local := vec.Vec3{X: lx & 15, Y: ly & 15, Z: lz & 15}
			p := origin.Add(local)
			rec.SetIntTriple("x", "y", "z", p.X, p.Y, p.Z)
			if err := chunk.PutBlockEntity(local, rec); err != nil {
				return nil, errs.Decode(fmt.Sprintf("blockEntities[%d]", i), err)
			}
		}
	}
	return chunk, nil
}

// decodeEntities читает список сущностей; повреждённый список или запись пропускаются
func (d *Deserializer) decodeEntities(m *gamemap.GameMap, st *decodeState, raw any) {
	items, ok := record.AsList(raw)
	if !ok {
		logger.Warn("Список сущностей повреждён (%T), пропущен", raw)
		return
	}
	for i, it := range items {
		rec, ok := record.AsCompound(it)
		if !ok {
			logger.Warn("Сущность %d не является составным тегом, пропущена", i)
			continue
		}
		rec, ok = d.Entities.Apply(st.version, rec.Clone())
		if !ok {
			metrics.MigrationDrops.WithLabelValues("entity").Inc()
			continue
		}
		e, err := gamemap.EntityFromRecord(rec)
		if err != nil {
			logger.Warn("Сущность %d пропущена: %v", i, err)
			continue
		}
		m.AddEntity(e)
	}
}

// decodeMarkers читает маркеры через реестр; неизвестные типы пропускаются
func (d *Deserializer) decodeMarkers(m *gamemap.GameMap, raw any) {
	items, ok := record.AsList(raw)
	if !ok {
		logger.Warn("Список маркеров повреждён (%T), пропущен", raw)
		return
	}
	for i, it := range items {
		rec, ok := record.AsCompound(it)
		if !ok {
			logger.Warn("Маркер %d не является составным тегом, пропущен", i)
			continue
		}
		if mk, ok := d.Markers.Decode(rec); ok {
			m.AddMarker(mk)
		}
	}
}

func decodeMeta(raw any) (gamemap.Meta, error) {
	tag, ok := record.AsCompound(raw)
	if !ok {
		return gamemap.Meta{}, fmt.Errorf("expected compound, got %T", raw)
	}
	meta := gamemap.NewMeta()
	if v, ok := tag["dimension"]; ok {
		dim, ok := v.(string)
		if !ok {
			return gamemap.Meta{}, errs.Decodef("dimension", "expected string, got %T", v)
		}
		if dim != "" {
			meta.Dimension = dim
		}
	}
	if custom, ok := tag.Compound("custom"); ok && len(custom) > 0 {
		meta.Custom = custom.Clone()
	}
	if t, ok := tag.Long("dayTime"); ok {
		meta.DayTime = t
	}
	if rules, ok := tag.Compound("gameRules"); ok {
		meta.GameRules = make(map[string]string, len(rules))
		for _, k := range rules.Keys() {
			if v, ok := rules.String(k); ok {
				meta.GameRules[k] = v
			}
		}
	}
	return meta, nil
}
