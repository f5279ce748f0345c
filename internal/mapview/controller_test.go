package mapview

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/smkmitra/pkl-location-service/internal/observability"
)

func newTestController() *Controller {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(observability.NewMetricsForTesting(), logger)
}

func facilities() []domain.Facility {
	return []domain.Facility{
		{ID: 1, Name: "PT Alpha", Address: "Jl. A", Sector: "Teknologi", Coord: &domain.Coordinate{Lat: -6.2, Lng: 106.8}},
		{ID: 2, Name: "PT Beta", Address: "Jl. B", Coord: &domain.Coordinate{Lat: -6.9, Lng: 107.6}},
		{ID: 3, Name: "PT Gamma", Address: "Jl. C"}, // unresolved, no marker
	}
}

func TestController_DefaultViewport(t *testing.T) {
	c := newTestController()
	markers, vp := c.Snapshot()
	assert.Empty(t, markers)
	assert.Equal(t, DefaultCenter, vp.Center)
	assert.Equal(t, DefaultZoom, vp.Zoom)
	assert.Nil(t, vp.Bounds)
}

func TestController_SkipsUnresolvedFacilities(t *testing.T) {
	c := newTestController()
	c.SetLocations(facilities())

	markers, _ := c.Snapshot()
	require.Len(t, markers, 2)
	assert.Equal(t, int64(1), markers[0].FacilityID)
	assert.Equal(t, "PT Alpha", markers[0].Popup.Name)
	assert.Equal(t, "Teknologi", markers[0].Popup.Sector)
	assert.Contains(t, markers[0].MapsURL, "google.com/maps")
}

func TestController_PopupKeepsZeroQuota(t *testing.T) {
	c := newTestController()
	c.SetLocations([]domain.Facility{
		{ID: 1, Name: "PT Alpha", Quota: 0, Coord: &domain.Coordinate{Lat: -6.2, Lng: 106.8}},
	})

	markers, _ := c.Snapshot()
	require.Len(t, markers, 1)
	out, err := json.Marshal(markers[0].Popup)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"kuota":0`)
}

func TestController_SingleMarkerCentersAtFocusZoom(t *testing.T) {
	c := newTestController()
	c.SetLocations(facilities()[:1])

	_, vp := c.Snapshot()
	assert.Equal(t, domain.Coordinate{Lat: -6.2, Lng: 106.8}, vp.Center)
	assert.Equal(t, FocusZoom, vp.Zoom)
	assert.Nil(t, vp.Bounds)
}

func TestController_MultipleMarkersFitBoundsOnce(t *testing.T) {
	c := newTestController()
	c.SetLocations(facilities())

	_, vp := c.Snapshot()
	require.NotNil(t, vp.Bounds)
	assert.Equal(t, domain.Coordinate{Lat: -6.9, Lng: 106.8}, vp.Bounds.SouthWest)
	assert.Equal(t, domain.Coordinate{Lat: -6.2, Lng: 107.6}, vp.Bounds.NorthEast)
	assert.Equal(t, FitPadding, vp.Padding)

	// a second list change must not re-fit
	more := append(facilities(), domain.Facility{
		ID: 4, Name: "PT Delta", Coord: &domain.Coordinate{Lat: -8.6, Lng: 115.2},
	})
	c.SetLocations(more)

	markers, vp2 := c.Snapshot()
	assert.Len(t, markers, 3)
	assert.Equal(t, vp.Bounds, vp2.Bounds, "bounds fit happens at most once")
}

func TestController_NoFitAfterUserInteraction(t *testing.T) {
	c := newTestController()
	c.UserInteracted()
	c.SetLocations(facilities())

	_, vp := c.Snapshot()
	assert.Nil(t, vp.Bounds)
	assert.Equal(t, DefaultCenter, vp.Center)
	assert.Equal(t, DefaultZoom, vp.Zoom)
}

func TestController_SingleMarkerOverridesEvenAfterInteraction(t *testing.T) {
	c := newTestController()
	c.UserInteracted()
	c.SetLocations(facilities()[:1])

	_, vp := c.Snapshot()
	assert.Equal(t, FocusZoom, vp.Zoom)
	assert.Equal(t, domain.Coordinate{Lat: -6.2, Lng: 106.8}, vp.Center)
}

func TestController_InteractionIsTerminal(t *testing.T) {
	c := newTestController()
	assert.False(t, c.Interacted())
	c.UserInteracted()
	c.UserInteracted() // idempotent
	assert.True(t, c.Interacted())
}

func TestController_EmptyListKeepsViewport(t *testing.T) {
	c := newTestController()
	c.SetLocations(facilities())
	_, before := c.Snapshot()

	c.SetLocations(nil)
	markers, after := c.Snapshot()
	assert.Empty(t, markers)
	assert.Equal(t, before, after)
}

func TestController_FullRebuildDropsStaleMarkers(t *testing.T) {
	c := newTestController()
	c.SetLocations(facilities())

	c.SetLocations([]domain.Facility{
		{ID: 9, Name: "PT Omega", Coord: &domain.Coordinate{Lat: -7.3, Lng: 112.7}},
	})
	markers, _ := c.Snapshot()
	require.Len(t, markers, 1)
	assert.Equal(t, int64(9), markers[0].FacilityID)
}

func TestController_FocusOn(t *testing.T) {
	c := newTestController()
	c.UserInteracted()
	c.FocusOn(domain.Coordinate{Lat: -6.21, Lng: 106.82})

	_, vp := c.Snapshot()
	assert.Equal(t, domain.Coordinate{Lat: -6.21, Lng: 106.82}, vp.Center)
	assert.Equal(t, FocusZoom, vp.Zoom)
}

func TestController_TeardownResetsFlags(t *testing.T) {
	c := newTestController()
	c.SetLocations(facilities())
	c.UserInteracted()

	c.Teardown()
	markers, vp := c.Snapshot()
	assert.Empty(t, markers)
	assert.Equal(t, DefaultCenter, vp.Center)
	assert.False(t, c.Interacted())

	// after teardown a new list change may fit bounds again
	c.SetLocations(facilities())
	_, vp = c.Snapshot()
	assert.NotNil(t, vp.Bounds)
}
