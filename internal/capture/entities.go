package capture

import (
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world"
)

// addEntities добавляет в карту сущности бокса, сдвинутые на -anchor.
// Игроки, несохраняемые сущности и отброшенные фильтром не попадают в карту.
// Фильтр может дописывать пользовательские данные карты.
func addEntities(m *gamemap.GameMap, r world.Reader, box vec.Box, anchor vec.Vec3Float, opts Options) {
	shift := vec.Vec3Float{}.Sub(anchor)

	custom := m.Meta.Custom
	if custom == nil {
		custom = record.Compound{}
	}
	defer func() {
		if len(custom) > 0 {
			m.Meta.Custom = custom
		}
	}()

	for _, e := range r.EntitiesIn(box) {
		if e.IsPlayer() {
			continue
		}
		rec, ok := e.SaveRecord()
		if !ok {
			continue
		}
		if opts.Filter != nil {
			rec, ok = opts.Filter(e, rec, custom)
			if !ok || rec == nil {
				continue
			}
		}
		m.AddEntity(gamemap.NewEntity(e.Pos(), rec).Translated(shift))
	}
}
