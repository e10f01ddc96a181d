package marker

import (
	"testing"

	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flag тестовый тип маркера, регистрируемый извне
type flag struct {
	Pose
	Color int
}

func (*flag) Type() string { return "test:flag" }

func (f *flag) ReadCustom(rec record.Compound) error {
	f.Color, _ = rec.Int("Color")
	return nil
}

func (f *flag) WriteCustom(rec record.Compound) {
	rec["Color"] = int32(f.Color)
}

func TestRegistry_RoundTrip(t *testing.T) {
	r := NewDefaultRegistry()

	t.Run("spawn", func(t *testing.T) {
		orig := &Spawn{Pose: Pose{Pos: vec.Vec3Float{X: 1.5, Y: 64, Z: -3.25}, Yaw: 90, Pitch: -10}, Team: "red", Named: true}
		rec := r.Encode(orig)
		assert.Equal(t, SpawnType, rec["id"])
		assert.Equal(t, []float64{1.5, 64, -3.25}, rec["Pos"])
		assert.Equal(t, []float32{90, -10}, rec["Rot"])

		m, ok := r.Decode(rec)
		require.True(t, ok)
		assert.Equal(t, orig, m)
	})

	t.Run("point", func(t *testing.T) {
		orig := &Point{Pose: Pose{Pos: vec.Vec3Float{X: 2}}, Name: "center"}
		m, ok := r.Decode(r.Encode(orig))
		require.True(t, ok)
		assert.Equal(t, orig, m)
	})
}

func TestRegistry_UnknownTypeIsDropped(t *testing.T) {
	r := NewDefaultRegistry()
	rec := record.Compound{"id": "mod:unknown"}
	rec.SetDoubleList("Pos", 0, 0, 0)

	m, ok := r.Decode(rec)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestRegistry_MalformedPoseIsDropped(t *testing.T) {
	r := NewDefaultRegistry()
	_, ok := r.Decode(record.Compound{"id": PointType, "Pos": "nope"})
	assert.False(t, ok)

	_, ok = r.Decode(record.Compound{"id": PointType, "Pos": []float64{1, 2}})
	assert.False(t, ok)

	_, ok = r.Decode(record.Compound{"id": PointType, "Pos": []float64{1, 2, 3}, "Name": int32(5)})
	assert.False(t, ok, "ошибка чтения полей типа")
}

func TestRegistry_ExternalTypesAreIsolated(t *testing.T) {
	a := NewDefaultRegistry()
	b := NewDefaultRegistry()
	require.NoError(t, a.Register("test:flag", func() Marker { return &flag{} }))
	assert.Error(t, a.Register("test:flag", func() Marker { return &flag{} }), "повторная регистрация")

	rec := a.Encode(&flag{Color: 3})
	m, ok := a.Decode(rec)
	require.True(t, ok)
	assert.Equal(t, 3, m.(*flag).Color)

	_, ok = b.Decode(rec)
	assert.False(t, ok, "реестр b не знает тип test:flag")
	assert.Equal(t, []string{PointType, SpawnType}, b.Registered())
}

func TestPose_Translate(t *testing.T) {
	p := &Point{}
	p.Anchor().Translate(vec.Vec3Float{X: 1, Y: 2, Z: 3})
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 2, Z: 3}, p.Pos)
}
