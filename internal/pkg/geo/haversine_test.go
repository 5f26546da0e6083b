package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(51.5074, -0.1278, 51.5074, -0.1278))
}

func TestHaversineDistance_KnownDistance(t *testing.T) {
	// London (Trafalgar Sq) to Paris (Notre-Dame) is roughly 342 km
	d := HaversineDistance(51.5080, -0.1281, 48.8530, 2.3499)
	assert.InDelta(t, 342000, d, 2000)
}

func TestHaversineDistance_Symmetric(t *testing.T) {
	a := HaversineDistance(-33.8688, 151.2093, -37.8136, 144.9631)
	b := HaversineDistance(-37.8136, 144.9631, -33.8688, 151.2093)
	assert.InDelta(t, a, b, 1e-6)
}

func TestOffsetNorth_MeterAccuracy(t *testing.T) {
	for _, meters := range []float64{10, 250, 400, 1000, 10000} {
		lat := OffsetNorth(53.4808, meters)
		d := HaversineDistance(53.4808, -2.2426, lat, -2.2426)
		assert.InDelta(t, meters, d, 0.01, "offset %v m", meters)
	}
}

func TestHaversineDistance_Antipodal(t *testing.T) {
	d := HaversineDistance(0, 0, 0, 180)
	assert.InDelta(t, 3.141592653589793*EarthRadiusMeters, d, 1)
}
