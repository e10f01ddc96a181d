// Package capture заполняет GameMap из живого мира.
//
// Point читает произвольный бокс поблочно и пишет ячейки относительно pos1.
// Aligned копирует палитровые контейнеры целых секций без перекодирования
// ячеек и поддерживает только границы, кратные 16.
package capture

import (
	"github.com/Betrayd/game-maps/internal/errs"
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world"
)

// EntityFilter получает сущность, её запись и пользовательские данные карты.
// Возвращает запись для сохранения (можно изменённую) или false, чтобы отбросить сущность.
type EntityFilter func(e world.Entity, rec record.Compound, custom record.Compound) (record.Compound, bool)

// Options параметры захвата
type Options struct {
	Filter EntityFilter
	// Custom копируется в Meta.Custom и передаётся фильтру
	Custom record.Compound
	// MaxVolume ограничение объёма в блоках; 0 - без ограничения
	MaxVolume int64
}

var logger = logging.GetCaptureLogger()

// Point захватывает бокс [pos1, pos2] (углы в любом порядке).
// Ячейки, блок-сущности и сущности пишутся относительно pos1.
func Point(r world.Reader, pos1, pos2 vec.Vec3, opts Options) (*gamemap.GameMap, error) {
	box := vec.NewBox(pos1, pos2)
	if err := checkVolume(box, opts.MaxVolume); err != nil {
		return nil, err
	}

	m := gamemap.New(nil, nil)
	fillMeta(m, r, opts)

	var blockEntities int
	box.ForEach(func(p vec.Vec3) {
		rel := p.Sub(pos1)
		m.SetBlockState(rel, r.BlockState(p))
		m.SetBiome(rel, r.Biome(p))

		if rec, ok := r.BlockEntity(p); ok {
			rec = rec.Clone()
			rec.SetIntTriple("x", "y", "z", rel.X, rel.Y, rel.Z)
			m.PutBlockEntity(rel, rec)
			blockEntities++
		}
	})

	addEntities(m, r, box, pos1.ToFloat(), opts)

	metrics.CapturesTotal.WithLabelValues("point").Inc()
	logger.Debug("Захват по точкам %v..%v: %d секций, %d блок-сущностей, %d сущностей",
		box.Min, box.Max, m.ChunkCount(), blockEntities, len(m.Entities))
	return m, nil
}

// Aligned захватывает секции [c1, c2] (границы включены по всем трём осям).
// Координаты секций и сущностей смещаются на -origin.
// Отсутствующие секции пропускаются и читаются как пустота.
func Aligned(r world.SectionReader, c1, c2, origin vec.SectionPos, opts Options) (*gamemap.GameMap, error) {
	box := vec.SectionBox(c1, c2)
	if err := checkVolume(box, opts.MaxVolume); err != nil {
		return nil, err
	}
	lo, hi := box.Min.Section(), box.Max.Section()
	shift := vec.Vec3{}.Sub(origin.Origin())

	m := gamemap.New(nil, nil)
	fillMeta(m, r, opts)

	var blockEntities int
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				pos := vec.SectionPos{X: x, Y: y, Z: z}
				s, ok := r.Section(pos)
				if !ok {
					continue
				}

				chunk := gamemap.NewChunkFrom(s.Blocks.Rebind(m.States), s.Biomes.Rebind(m.Biomes))
				for _, src := range s.BlockEntities {
					rec := src.Clone()
					bx, by, bz, ok := rec.IntTriple("x", "y", "z")
					if !ok {
						logger.Warn("Блок-сущность без координат в секции %v пропущена", pos)
						continue
					}
					rec.SetIntTriple("x", "y", "z", bx+shift.X, by+shift.Y, bz+shift.Z)
					if err := chunk.PutBlockEntityRecord(rec); err != nil {
						return nil, err
					}
					blockEntities++
				}
				m.PutChunk(pos.Sub(origin), chunk)
			}
		}
	}

	addEntities(m, r, box, origin.Origin().ToFloat(), opts)

	metrics.CapturesTotal.WithLabelValues("aligned").Inc()
	logger.Debug("Выровненный захват %v..%v от %v: %d секций, %d блок-сущностей, %d сущностей",
		lo, hi, origin, m.ChunkCount(), blockEntities, len(m.Entities))
	return m, nil
}

func checkVolume(box vec.Box, limit int64) error {
	if limit <= 0 || box.Volume() <= limit {
		return nil
	}
	return &errs.BoundsError{What: "capture box", Pos: box.Size(), Max: box.Max, Min: box.Min}
}

func fillMeta(m *gamemap.GameMap, r world.Reader, opts Options) {
	if dim := r.Dimension(); dim != "" {
		m.Meta.Dimension = dim
	}
	if ts, ok := r.(world.TimeSource); ok {
		m.Meta.DayTime = ts.DayTime()
	}
	if rs, ok := r.(world.RuleSource); ok {
		if rules := rs.GameRules(); len(rules) > 0 {
			m.Meta.GameRules = rules
		}
	}
	if len(opts.Custom) > 0 {
		m.Meta.Custom = opts.Custom.Clone()
	}
}
