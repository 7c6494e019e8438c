// Package domain models vessel position resolution.
//
// # Vessel keys
//
// Every store and provider is keyed on the Maritime Mobile Service Identity
// (MMSI), a 9-digit number assigned to a ship's radio station. Free-text
// vessel names are mapped to an MMSI by the [Resolver] through a [NameTable];
// several names may share one MMSI.
//
// # Records
//
// An [EnrichedRecord] joins a [PositionFix] with the [WeatherSnapshot] at that
// position and, per request, an optional satellite image plus the
// [AnomalyOutcome] computed from it. The image and anomaly outcome are never
// persisted.
//
// Provenance is one of:
//
//	cache     served from a fresh CacheEntry, no provider was called
//	live      position came from the position provider
//	degraded  the position provider was rate limited or down and a
//	          placeholder fix was substituted (see [MockPosition])
//
// # Failure classes
//
// Provider adapters return a [ProviderError] carrying a [FailureClass]. The
// pipeline branches on the class only, never on a provider's raw status code:
//
//	RateLimited          HTTP 429
//	UpstreamUnavailable  5xx, 401, 403, transport error, timeout, open breaker
//	InvalidResponse      other non-2xx, undecodable or out-of-range payload
package domain
