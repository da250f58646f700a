package geo

import "math"

// EarthRadiusKM is the mean Earth radius used by every distance in the module.
const EarthRadiusKM = 6371.0

const degToRad = math.Pi / 180.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat"`
	Lon float64 `json:"lon" yaml:"lon" mapstructure:"lon"`
}

// Valid reports whether the point is finite and inside the lat/lon ranges.
// Haversine never calls it; callers that load coordinates do.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Haversine returns the great-circle distance between a and b in kilometers.
//
// The result is symmetric bit-for-bit: every term is either a product that
// commutes or an even function of a coordinate difference. NaN inputs
// propagate to a NaN result.
func Haversine(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * degToRad
	dLon := (b.Lon - a.Lon) * degToRad

	sLat := math.Sin(dLat / 2)
	sLon := math.Sin(dLon / 2)

	h := sLat*sLat + math.Cos(a.Lat*degToRad)*math.Cos(b.Lat*degToRad)*sLon*sLon
	// Rounding can push h a hair past 1 for antipodal points.
	if h > 1 {
		h = 1
	}

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKM * c
}

// AngularKM converts a surface distance in kilometers to a central angle in degrees.
func AngularKM(km float64) float64 {
	return km / EarthRadiusKM / degToRad
}

// Round2 rounds a distance to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
