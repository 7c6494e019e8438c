package domain

// Placeholder values used when the position provider cannot be reached.
const (
	MockVesselName  = "MOCK VESSEL (Demo)"
	MockSecondaryID = "1234567"
	MockLatitude    = 53.259190
	MockLongitude   = 6.497000
	MockSpeed       = 12.5
	MockCourse      = 91
)

// MockPosition builds the placeholder fix for key, stamped with the current time.
func MockPosition(key VesselKey) PositionFix {
	return PositionFix{
		Key:              key,
		DisplayName:      MockVesselName,
		SecondaryID:      MockSecondaryID,
		Latitude:         MockLatitude,
		Longitude:        MockLongitude,
		CourseOverGround: MockCourse,
		Speed:            MockSpeed,
		ObservedAt:       Now(),
	}
}

// NeutralWeather is the deterministic snapshot substituted when weather cannot be fetched.
func NeutralWeather() WeatherSnapshot {
	rain := 0.0
	return WeatherSnapshot{
		Condition:     "Clear",
		Description:   "clear sky",
		TemperatureC:  25,
		PressureHPa:   1013,
		HumidityPct:   50,
		WindSpeed:     5,
		Rainfall:      &rain,
		CloudCoverPct: 0,
		Neutral:       true,
	}
}

// StatusMessage returns the human-readable provenance annotation for a record.
// origin is only consulted for cache hits; class only for degraded records.
func StatusMessage(p Provenance, origin Provenance, class FailureClass) string {
	switch p {
	case ProvenanceLive:
		return "Live Data"
	case ProvenanceDegraded:
		if class == FailureRateLimited {
			return "Mock Data - API Limit Exceeded"
		}
		return "Mock Data - Position Provider Unavailable"
	case ProvenanceCache:
		if origin == ProvenanceDegraded {
			return "Cached Data (Mock)"
		}
		return "Cached Data"
	default:
		return ""
	}
}
