package domain

import "time"

// Resolution sources.
const (
	SourceBatch  = "batch"  // list-wide enrichment on refresh
	SourceLocate = "locate" // user-triggered single-facility lookup
)

// ResolvedLocation records one coordinate pair filled in by enrichment. It
// is published to the sink topic (when configured) so downstream consumers
// see coordinates the backend itself never stored.
type ResolvedLocation struct {
	FacilityID int64      `json:"facility_id"`
	Name       string     `json:"name,omitempty"`
	Query      string     `json:"query,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
	Source     string     `json:"source"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

// DiffResolved returns one event per facility that has coordinates in after
// but did not in before. Facilities absent from before count as newly
// resolved when they arrive with enrichment-supplied coordinates.
func DiffResolved(before, after []Facility, source string, at time.Time) []ResolvedLocation {
	prev := make(map[int64]bool, len(before))
	for _, f := range before {
		prev[f.ID] = f.HasCoordinates()
	}

	var events []ResolvedLocation
	for _, f := range after {
		if !f.HasCoordinates() || prev[f.ID] {
			continue
		}
		events = append(events, ResolvedLocation{
			FacilityID: f.ID,
			Name:       f.Name,
			Query:      f.GeocodeQuery(),
			Coordinate: *f.Coord,
			Source:     source,
			ResolvedAt: at,
		})
	}
	return events
}
