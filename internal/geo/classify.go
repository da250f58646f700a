// Package geo provides the great-circle distance engine and distance banding
// used to grade how far a postal code sits from its hub.
package geo

// Distance bands.
const (
	BandNear = "near"
	BandMid  = "mid"
	BandFar  = "far"
)

// Distance thresholds for banding (kilometers).
const (
	nearThresholdKM = 3.0 // strictly below 3km
	midThresholdKM  = 6.0 // strictly below 6km
)

// DefaultCoverageRadiusKM is the service radius drawn around a hub.
const DefaultCoverageRadiusKM = 3.0

// Classify returns the band for a hub-to-postal-code distance.
// Rules:
//   - near: distance < 3km
//   - mid: 3km <= distance < 6km
//   - far: distance >= 6km
func Classify(distanceKM float64) string {
	if distanceKM < nearThresholdKM {
		return BandNear
	}
	if distanceKM < midThresholdKM {
		return BandMid
	}
	return BandFar
}
