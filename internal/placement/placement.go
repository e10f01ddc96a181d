// Package placement записывает GameMap в живой мир со смещением.
package placement

import (
	"fmt"

	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/Betrayd/game-maps/internal/palette"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world"
)

// Options параметры размещения
type Options struct {
	// SkipAir не записывать воздух (по умолчанию пишутся все 4096 ячеек секции)
	SkipAir bool
	// Flags флаги записи; 0 - world.FlagsForce
	Flags world.SetFlags
}

// Stats итог размещения
type Stats struct {
	Blocks        int
	BlockEntities int
	Entities      int
}

var logger = logging.GetComponentLogger("placement")

// Place записывает карту в мир со смещением offset и флагами по умолчанию
func Place(w world.Writer, m *gamemap.GameMap, offset vec.Vec3) (Stats, error) {
	return PlaceWith(w, m, offset, Options{})
}

// PlaceWith записывает карту в мир.
//
// Каждая ячейка секции пишется в origin+local+offset, затем создаются
// блок-сущности с пересчитанными x, y, z и сущности со смещёнными позициями.
// Новую идентичность сущностям назначает мир.
func PlaceWith(w world.Writer, m *gamemap.GameMap, offset vec.Vec3, opts Options) (Stats, error) {
	flags := opts.Flags
	if flags == 0 {
		flags = world.FlagsForce
	}

	var stats Stats
	for _, key := range m.SectionKeys() {
		c, _ := m.Chunk(key)
		base := key.Origin().Add(offset)

		for i := 0; i < palette.Volume; i++ {
			state := c.Blocks.At(i)
			if opts.SkipAir && state.IsAir() {
				continue
			}
			x, y, z := palette.Unindex(i)
			pos := base.Add(vec.Vec3{X: x, Y: y, Z: z})
			if err := w.SetBlockState(pos, state, flags); err != nil {
				return stats, fmt.Errorf("set block %v: %w", pos, err)
			}
			stats.Blocks++
		}

		for _, be := range c.BlockEntities() {
			pos := base.Add(be.Local)
			rec := be.Record.Clone()
			rec.SetIntTriple("x", "y", "z", pos.X, pos.Y, pos.Z)
			if err := w.AddBlockEntity(rec); err != nil {
				return stats, fmt.Errorf("block entity %v: %w", pos, err)
			}
			stats.BlockEntities++
		}
	}

	shift := offset.ToFloat()
	for i, e := range m.Entities {
		if err := w.SpawnEntity(e.CreateRecord(shift)); err != nil {
			// сущность, которую мир не смог создать, не прерывает размещение
			logger.Warn("Сущность %d (%s) не создана: %v", i, e.Type(), err)
			continue
		}
		stats.Entities++
	}

	metrics.PlacedBlocks.Add(float64(stats.Blocks))
	logger.Debug("Карта размещена в %v: %d блоков, %d блок-сущностей, %d сущностей",
		offset, stats.Blocks, stats.BlockEntities, stats.Entities)
	return stats, nil
}
