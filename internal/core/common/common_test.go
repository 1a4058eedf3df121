package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type row struct {
		ID string `json:"node_id"`
	}

	got, err := ParseJSON[[]row]([]byte("\xEF\xBB\xBF  [{\"node_id\": \"a\"}]\n"))
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: "a"}}, got)

	_, err = ParseJSON[[]row]([]byte("   "))
	assert.Error(t, err)

	_, err = ParseJSON[[]row]([]byte("{not json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal JSON")
}

func TestUniformIntBounds(t *testing.T) {
	rng := NewRand(7)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := UniformInt(rng, 1, 3)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 4, UniformInt(rng, 4, 4))
	assert.Equal(t, 4, UniformInt(rng, 4, 2))
}

func TestShuffledIsPermutation(t *testing.T) {
	idx := Shuffled(NewRand(1), 10)
	require.Len(t, idx, 10)
	seen := map[int]bool{}
	for _, i := range idx {
		seen[i] = true
	}
	assert.Len(t, seen, 10)
}

func TestUUIDGeneratorIsReproducible(t *testing.T) {
	a := NewUUIDGenerator(NewRand(42))
	b := NewUUIDGenerator(NewRand(42))

	for i := 0; i < 5; i++ {
		idA, idB := a(), b()
		assert.Equal(t, idA, idB)
		parsed, err := uuid.Parse(idA)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
	}

	c := NewUUIDGenerator(NewRand(43))
	assert.NotEqual(t, NewUUIDGenerator(NewRand(42))(), c())
}

func TestUUIDGeneratorWithoutRand(t *testing.T) {
	gen := NewUUIDGenerator(nil)
	assert.NotEqual(t, gen(), gen())
}
