package main

import (
	"flag"
	"testing"

	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVec3(t *testing.T) {
	v, err := parseVec3("1, -2,3")
	require.NoError(t, err)
	assert.Equal(t, vec.Vec3{X: 1, Y: -2, Z: 3}, v)

	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c"} {
		_, err := parseVec3(bad)
		assert.Error(t, err, bad)
	}
}

func TestVec3Flag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := &vec3Flag{}
	fs.Var(f, "offset", "")
	require.NoError(t, fs.Parse([]string{"-offset", "10,64,-5"}))
	assert.Equal(t, vec.Vec3{X: 10, Y: 64, Z: -5}, f.v)
	assert.Equal(t, "10,64,-5", f.String())
}
