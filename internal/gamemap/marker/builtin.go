package marker

import (
	"fmt"

	"github.com/Betrayd/game-maps/internal/record"
)

const (
	PointType = "gamemaps:point"
	SpawnType = "gamemaps:spawn"
)

// Point простая именованная точка
type Point struct {
	Pose
	Name string
}

func (*Point) Type() string { return PointType }

func (p *Point) ReadCustom(rec record.Compound) error {
	if v, ok := rec["Name"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("Name: expected string, got %T", v)
		}
		p.Name = s
	}
	return nil
}

func (p *Point) WriteCustom(rec record.Compound) {
	if p.Name != "" {
		rec["Name"] = p.Name
	}
}

// Spawn точка появления команды
type Spawn struct {
	Pose
	Team  string
	Named bool // показывать имя команды над точкой
}

func (*Spawn) Type() string { return SpawnType }

func (s *Spawn) ReadCustom(rec record.Compound) error {
	s.Team, _ = rec.String("Team")
	s.Named, _ = rec.Bool("isNamed")
	return nil
}

func (s *Spawn) WriteCustom(rec record.Compound) {
	if s.Team != "" {
		rec["Team"] = s.Team
	}
	if s.Named {
		rec["isNamed"] = int8(1)
	} else {
		rec["isNamed"] = int8(0)
	}
}
