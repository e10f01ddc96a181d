package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Betrayd/game-maps/internal/vec"
)

// parseVec3 разбирает координаты вида "x,y,z"
func parseVec3(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var out [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("coordinate %d of %q: %w", i, s, err)
		}
		out[i] = n
	}
	return vec.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// vec3Flag значение флага с координатами
type vec3Flag struct {
	v vec.Vec3
}

func (f *vec3Flag) String() string {
	return fmt.Sprintf("%d,%d,%d", f.v.X, f.v.Y, f.v.Z)
}

func (f *vec3Flag) Set(s string) error {
	v, err := parseVec3(s)
	if err != nil {
		return err
	}
	f.v = v
	return nil
}
