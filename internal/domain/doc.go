// Package domain models partner-company ("facility") records for the PKL
// internship program and the coordinate conventions around them.
//
// # Data Source
//
// Facility records come from the dashboard backend's company endpoint as a
// JSON object with a "data" array. The backend predates any schema discipline
// for coordinates, so three field spellings exist per axis:
//
//	latitude:  "lat", "latitude", "geo_lat"   (checked in that order)
//	longitude: "lng", "longitude", "geo_lng"  (checked in that order)
//
// Values may be JSON numbers or numeric strings (some backend versions send
// "-6.2088" quoted). The first candidate that parses to a finite number wins.
// A facility either has a full lat/lng pair or none at all; a partial pair is
// never produced.
//
// # Geocode Queries
//
// Facilities lacking coordinates are resolved through a free-text geocoder
// lookup. The query is the address when present, otherwise the name, used
// verbatim: no trimming or case-folding, because the session geocode cache
// keys on the exact query text and normalizing here would silently orphan
// existing cache entries.
//
// # Resolution Events
//
// Each coordinate filled in by enrichment is recorded as a
// [ResolvedLocation] with the source mode ("batch" for list enrichment,
// "locate" for a user-triggered lookup) so downstream consumers such as the
// reporting service can stay in sync.
package domain
