package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Facility represents a partner company / internship site as served by the
// dashboard backend. Coord is nil until a coordinate pair is known, either
// from the backend record itself or from geocoding enrichment. Enrichment is
// local: resolved coordinates are never written back to the backend.
type Facility struct {
	ID            int64
	Name          string
	Address       string
	Sector        string
	Specialist    string
	Quota         int
	ContactPerson string
	Phone         string
	Email         string
	Website       string
	Coord         *Coordinate
}

// RawFacility mirrors one element of the backend's company payload, with the
// coordinate field variants kept raw so either numbers or numeric strings
// decode without error.
type RawFacility struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	Sector        string          `json:"sector"`
	Specialist    string          `json:"specialist"`
	Quota         int             `json:"kuota"`
	ContactPerson string          `json:"contact_person"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	Website       string          `json:"website"`
	Lat           json.RawMessage `json:"lat,omitempty"`
	Latitude      json.RawMessage `json:"latitude,omitempty"`
	GeoLat        json.RawMessage `json:"geo_lat,omitempty"`
	Lng           json.RawMessage `json:"lng,omitempty"`
	Longitude     json.RawMessage `json:"longitude,omitempty"`
	GeoLng        json.RawMessage `json:"geo_lng,omitempty"`
}

// ParseCoordinate extracts a finite float from a raw JSON value that may be
// a number, a numeric string, null, or absent. Anything that does not parse
// to a finite number reports false; it never panics.
func ParseCoordinate(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, isFinite(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, isFinite(f)
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// firstCoordinate returns the first candidate that parses to a finite number.
func firstCoordinate(candidates ...json.RawMessage) (float64, bool) {
	for _, c := range candidates {
		if v, ok := ParseCoordinate(c); ok {
			return v, true
		}
	}
	return 0, false
}

// NormalizeFacility maps a raw backend record to a Facility, resolving the
// coordinate spellings in priority order. The pair is set only when both
// axes parse; a finite latitude with an unparseable longitude (or vice
// versa) leaves the facility unresolved.
func NormalizeFacility(raw RawFacility) Facility {
	f := Facility{
		ID:            raw.ID,
		Name:          raw.Name,
		Address:       raw.Address,
		Sector:        raw.Sector,
		Specialist:    raw.Specialist,
		Quota:         raw.Quota,
		ContactPerson: raw.ContactPerson,
		Phone:         raw.Phone,
		Email:         raw.Email,
		Website:       raw.Website,
	}

	lat, latOK := firstCoordinate(raw.Lat, raw.Latitude, raw.GeoLat)
	lng, lngOK := firstCoordinate(raw.Lng, raw.Longitude, raw.GeoLng)
	if latOK && lngOK {
		f.Coord = &Coordinate{Lat: lat, Lng: lng}
	}
	return f
}

// DecodeFacilityList parses the backend's `{"data": [...]}` company payload
// and normalizes every record.
func DecodeFacilityList(data []byte) ([]Facility, error) {
	var payload struct {
		Data []RawFacility `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse facility list: %w", err)
	}
	out := make([]Facility, 0, len(payload.Data))
	for _, raw := range payload.Data {
		out = append(out, NormalizeFacility(raw))
	}
	return out, nil
}

// HasCoordinates reports whether the facility carries a resolved pair.
func (f Facility) HasCoordinates() bool {
	return f.Coord != nil
}

// GeocodeQuery returns the text used for geocoder lookups: the address when
// present, otherwise the name. The value is used verbatim as the cache key,
// so callers must not normalize it.
func (f Facility) GeocodeQuery() string {
	if f.Address != "" {
		return f.Address
	}
	return f.Name
}

// GoogleMapsURL builds the external navigation link shown next to each
// facility in the dashboard.
func (f Facility) GoogleMapsURL() string {
	q := f.Address
	if q == "" {
		q = f.Name
	}
	if q == "" {
		q = "Lokasi PKL"
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(q)
}

// MatchesQuery reports whether the free-text query appears in any of the
// facility's descriptive fields, case-insensitively. An empty query matches
// everything.
func (f Facility) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	fields := []string{
		f.Name, f.Address, f.Sector, f.Specialist,
		f.ContactPerson, f.Phone, f.Email, f.Website,
	}
	parts := fields[:0]
	for _, s := range fields {
		if s != "" {
			parts = append(parts, s)
		}
	}
	haystack := strings.ToLower(strings.Join(parts, " "))
	return strings.Contains(haystack, q)
}

// FilterFacilities applies the dashboard's search box and sector filter.
func FilterFacilities(list []Facility, query, sector string) []Facility {
	out := make([]Facility, 0, len(list))
	for _, f := range list {
		if sector != "" && f.Sector != sector {
			continue
		}
		if !f.MatchesQuery(query) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// UniqueSectors returns the distinct non-empty sectors in sorted order, for
// the dashboard's sector dropdown.
func UniqueSectors(list []Facility) []string {
	seen := make(map[string]struct{}, len(list))
	var sectors []string
	for _, f := range list {
		if f.Sector == "" {
			continue
		}
		if _, ok := seen[f.Sector]; ok {
			continue
		}
		seen[f.Sector] = struct{}{}
		sectors = append(sectors, f.Sector)
	}
	sort.Strings(sectors)
	return sectors
}
