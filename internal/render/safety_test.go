package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/safe-route/internal/models"
)

var (
	a = models.Coordinate{Lat: 28.60, Lon: 77.20}
	b = models.Coordinate{Lat: 28.61, Lon: 77.21}
	c = models.Coordinate{Lat: 28.62, Lon: 77.22}
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskBand
	}{
		{0, Safer},
		{0.29999, Safer},
		{0.3, Moderate},
		{0.5, Moderate},
		{0.59999, Moderate},
		{0.6, Higher},
		{1, Higher},
		{1.7, Higher},
		{-0.2, Safer},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %v", tt.score)
	}
}

func TestSegments(t *testing.T) {
	t.Run("one segment per score", func(t *testing.T) {
		segs := Segments([]models.Coordinate{a, b, c}, []float64{0.1, 0.5})
		require.Len(t, segs, 2)

		assert.Equal(t, a, segs[0].From)
		assert.Equal(t, b, segs[0].To)
		assert.Equal(t, Safer, segs[0].Band)
		assert.Equal(t, "#22c55e", segs[0].Color)

		assert.Equal(t, b, segs[1].From)
		assert.Equal(t, c, segs[1].To)
		assert.Equal(t, Moderate, segs[1].Band)
		assert.Equal(t, "#facc15", segs[1].Color)

		for _, s := range segs {
			assert.Equal(t, 8, s.Weight)
			assert.Equal(t, 0.8, s.Opacity)
		}
	})

	t.Run("short scores truncate", func(t *testing.T) {
		segs := Segments([]models.Coordinate{a, b, c}, []float64{0.9})
		require.Len(t, segs, 1)
		assert.Equal(t, "#ef4444", segs[0].Color)
	})

	t.Run("per-point scores truncate to segments", func(t *testing.T) {
		segs := Segments([]models.Coordinate{a, b, c}, []float64{0.1, 0.2, 0.9})
		assert.Len(t, segs, 2)
	})

	t.Run("degenerate input", func(t *testing.T) {
		assert.Empty(t, Segments(nil, nil))
		assert.Empty(t, Segments([]models.Coordinate{a}, []float64{0.5}))
		assert.Empty(t, Segments([]models.Coordinate{a, b}, nil))
	})
}

func TestMismatch(t *testing.T) {
	assert.Equal(t, 0, Mismatch([]models.Coordinate{a, b, c}, []float64{1, 2}))
	assert.Equal(t, 1, Mismatch([]models.Coordinate{a, b, c}, []float64{1, 2, 3}))
	assert.Equal(t, -2, Mismatch([]models.Coordinate{a, b, c}, nil))
	assert.Equal(t, 0, Mismatch(nil, nil))
}

func TestLegend(t *testing.T) {
	legend := Legend()
	require.Len(t, legend, 3)
	assert.Equal(t, "Safer", legend[0].Label)
	assert.Equal(t, "#ef4444", legend[2].Color)
}
