package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_IdenticalPointsAreZero(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{-23.5505, -46.6333},
		{89.9, 179.9},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p[0], p[1], p[0], p[1]))
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(-23.5505, -46.6333, -22.9068, -43.1729)
	d2 := DistanceKm(-22.9068, -43.1729, -23.5505, -46.6333)
	assert.Equal(t, d1, d2)
}

func TestDistanceKm_KnownFixture(t *testing.T) {
	// one degree of longitude on the equator
	d := DistanceKm(0, 0, 0, 1)
	assert.InDelta(t, 111.19, d, 0.5)
}

func TestDistanceKm_SaoPauloToRio(t *testing.T) {
	d := DistanceKm(-23.5505, -46.6333, -22.9068, -43.1729)
	// straight-line distance is roughly 360km
	assert.True(t, d > 330 && d < 390, "got %f", d)
	assert.False(t, math.IsNaN(d))
}
