package rank

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineBounds(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.3, 0.5, 0.2}
		score, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		score, err := Cosine([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("negative cosine clamps to 0", func(t *testing.T) {
		score, err := Cosine([]float32{1, 0}, []float32{-1, 0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("always within unit interval", func(t *testing.T) {
		pairs := [][2][]float32{
			{{1, 2, 3}, {4, 5, 6}},
			{{-1, 2}, {3, -4}},
			{{0.001, 0.999}, {0.999, 0.001}},
		}
		for _, pair := range pairs {
			score, err := Cosine(pair[0], pair[1])
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	})
}

func TestCosineDimensionMismatch(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
	}{
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"empty left", nil, []float32{1}},
		{"empty right", []float32{1}, nil},
		{"zero vector", []float32{0, 0}, []float32{1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Cosine(tc.a, tc.b)
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestSafeCosineRecovers(t *testing.T) {
	// Mismatched inputs score 0 instead of erroring
	assert.Equal(t, 0.0, SafeCosine([]float32{1, 2}, []float32{1}, slog.Default()))
	assert.Equal(t, 0.0, SafeCosine(nil, nil, nil))

	v := []float32{0.6, 0.8}
	assert.InDelta(t, 1.0, SafeCosine(v, v, nil), 1e-9)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
