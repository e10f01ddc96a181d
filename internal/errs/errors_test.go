package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_NestsFieldPath(t *testing.T) {
	base := errors.New("truncated")

	err := Decode("data", base)
	err = Decode("blocks", err)
	err = Decode("chunk", err)
	err = Decode("[3]", err)
	err = Decode("chunks", err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "chunks[3].chunk.blocks.data", de.Field)
	assert.ErrorIs(t, err, base)
	assert.True(t, IsDecode(fmt.Errorf("wrapped: %w", err)))
}

func TestDecode_Nil(t *testing.T) {
	assert.NoError(t, Decode("x", nil))
}

func TestBoundsError(t *testing.T) {
	err := fmt.Errorf("set: %w", LocalBounds(vec.Vec3{X: 16}))
	assert.True(t, IsBounds(err))
	assert.False(t, IsDecode(err))
	assert.Contains(t, err.Error(), "local")
}
