// Package mapview maintains the map view model: the marker set derived from
// the current facility list and the viewport the dashboard should show.
// Rendering happens client-side; this package only decides what to render.
package mapview

import (
	"log/slog"
	"sync"

	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/smkmitra/pkl-location-service/internal/observability"
)

// Default viewport: central Jakarta at city-wide zoom.
var DefaultCenter = domain.Coordinate{Lat: -6.2088, Lng: 106.8456}

const (
	DefaultZoom = 12
	FocusZoom   = 15
	FitPadding  = 50
)

// Marker is one pin on the map with its popup content.
type Marker struct {
	FacilityID int64             `json:"facility_id"`
	Position   domain.Coordinate `json:"position"`
	Popup      Popup             `json:"popup"`
	MapsURL    string            `json:"maps_url"`
}

// Popup carries the fields shown when a marker is clicked.
type Popup struct {
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	Sector        string `json:"sector,omitempty"`
	Specialist    string `json:"specialist,omitempty"`
	Quota         int    `json:"kuota"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// Bounds is the rectangle enclosing every marker.
type Bounds struct {
	SouthWest domain.Coordinate `json:"south_west"`
	NorthEast domain.Coordinate `json:"north_east"`
}

// Viewport tells the client where to point the camera. Bounds takes
// precedence over Center/Zoom when set.
type Viewport struct {
	Center  domain.Coordinate `json:"center"`
	Zoom    int               `json:"zoom"`
	Bounds  *Bounds           `json:"bounds,omitempty"`
	Padding int               `json:"padding,omitempty"`
}

// Controller owns the marker set and viewport state. All methods are safe
// for concurrent use.
type Controller struct {
	mu               sync.Mutex
	markers          []Marker
	viewport         Viewport
	interacted       bool
	initialBoundsSet bool
	metrics          *observability.Metrics
	logger           *slog.Logger
}

// NewController returns a controller showing the default viewport with no
// markers.
func NewController(metrics *observability.Metrics, logger *slog.Logger) *Controller {
	return &Controller{
		viewport: Viewport{Center: DefaultCenter, Zoom: DefaultZoom},
		metrics:  metrics,
		logger:   logger,
	}
}

// SetLocations rebuilds the entire marker set from the given facilities.
// Facilities without coordinates are skipped. The viewport auto-adjusts at
// most once: a single marker centers the map on it, several markers fit the
// enclosing bounds, and after that first fit, or after any user interaction,
// the camera is left alone.
func (c *Controller) SetLocations(list []domain.Facility) {
	c.mu.Lock()
	defer c.mu.Unlock()

	markers := make([]Marker, 0, len(list))
	for _, f := range list {
		if !f.HasCoordinates() {
			continue
		}
		markers = append(markers, Marker{
			FacilityID: f.ID,
			Position:   *f.Coord,
			Popup: Popup{
				Name:          f.Name,
				Address:       f.Address,
				Sector:        f.Sector,
				Specialist:    f.Specialist,
				Quota:         f.Quota,
				ContactPerson: f.ContactPerson,
				Phone:         f.Phone,
			},
			MapsURL: f.GoogleMapsURL(),
		})
	}
	c.markers = markers
	c.metrics.MarkersRendered.Set(float64(len(markers)))

	switch {
	case len(markers) == 0:
		// nothing to frame, keep the current viewport
	case len(markers) == 1:
		c.viewport = Viewport{Center: markers[0].Position, Zoom: FocusZoom}
	case !c.interacted && !c.initialBoundsSet:
		b := boundsOf(markers)
		c.viewport = Viewport{Center: b.center(), Zoom: c.viewport.Zoom, Bounds: &b, Padding: FitPadding}
		c.initialBoundsSet = true
	}
}

// FocusOn centers the viewport on a single coordinate at focus zoom. Used by
// the on-demand locate flow; it overrides the camera even after user
// interaction, since the user asked for it.
func (c *Controller) FocusOn(coord domain.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = Viewport{Center: coord, Zoom: FocusZoom}
}

// UserInteracted records that the user moved or zoomed the map. From this
// point on automatic bounds fitting is disabled until Teardown.
func (c *Controller) UserInteracted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interacted {
		return
	}
	c.interacted = true
	c.logger.Debug("map interaction recorded, auto-fit disabled")
}

// Interacted reports whether any user interaction has been recorded.
func (c *Controller) Interacted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interacted
}

// Snapshot returns the current markers and viewport for rendering.
func (c *Controller) Snapshot() ([]Marker, Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Marker, len(c.markers))
	copy(out, c.markers)
	return out, c.viewport
}

// Teardown clears all state and resets the interaction and fit flags, as
// when the map component unmounts. A subsequent SetLocations starts fresh.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers = nil
	c.viewport = Viewport{Center: DefaultCenter, Zoom: DefaultZoom}
	c.interacted = false
	c.initialBoundsSet = false
	c.metrics.MarkersRendered.Set(0)
}

func boundsOf(markers []Marker) Bounds {
	b := Bounds{SouthWest: markers[0].Position, NorthEast: markers[0].Position}
	for _, m := range markers[1:] {
		if m.Position.Lat < b.SouthWest.Lat {
			b.SouthWest.Lat = m.Position.Lat
		}
		if m.Position.Lng < b.SouthWest.Lng {
			b.SouthWest.Lng = m.Position.Lng
		}
		if m.Position.Lat > b.NorthEast.Lat {
			b.NorthEast.Lat = m.Position.Lat
		}
		if m.Position.Lng > b.NorthEast.Lng {
			b.NorthEast.Lng = m.Position.Lng
		}
	}
	return b
}

func (b Bounds) center() domain.Coordinate {
	return domain.Coordinate{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}
