package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{name: "number", raw: `-6.2088`, want: -6.2088, ok: true},
		{name: "integer", raw: `107`, want: 107, ok: true},
		{name: "zero", raw: `0`, want: 0, ok: true},
		{name: "numeric string", raw: `"-6.9"`, want: -6.9, ok: true},
		{name: "padded numeric string", raw: `" 106.8456 "`, want: 106.8456, ok: true},
		{name: "empty string", raw: `""`, ok: false},
		{name: "non-numeric string", raw: `"jakarta"`, ok: false},
		{name: "null", raw: `null`, ok: false},
		{name: "bool", raw: `true`, ok: false},
		{name: "object", raw: `{"x":1}`, ok: false},
		{name: "infinity string", raw: `"Inf"`, ok: false},
		{name: "nan string", raw: `"NaN"`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCoordinate(json.RawMessage(tt.raw))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseCoordinate_Absent(t *testing.T) {
	_, ok := ParseCoordinate(nil)
	assert.False(t, ok)
}

func TestNormalizeFacility_FieldPriority(t *testing.T) {
	// "lat" wins over "latitude" and "geo_lat" even when all are present.
	raw := RawFacility{
		ID:       1,
		Name:     "PT Maju Jaya",
		Lat:      json.RawMessage(`-6.2`),
		Latitude: json.RawMessage(`-7.0`),
		GeoLat:   json.RawMessage(`-8.0`),
		Lng:      json.RawMessage(`106.8`),
	}
	f := NormalizeFacility(raw)
	require.True(t, f.HasCoordinates())
	assert.Equal(t, -6.2, f.Coord.Lat)
	assert.Equal(t, 106.8, f.Coord.Lng)
}

func TestNormalizeFacility_AlternateSpellings(t *testing.T) {
	tests := []struct {
		name string
		raw  RawFacility
	}{
		{
			name: "latitude/longitude",
			raw: RawFacility{
				Latitude:  json.RawMessage(`-6.9`),
				Longitude: json.RawMessage(`"107.6"`),
			},
		},
		{
			name: "geo_lat/geo_lng",
			raw: RawFacility{
				GeoLat: json.RawMessage(`"-6.9"`),
				GeoLng: json.RawMessage(`107.6`),
			},
		},
		{
			name: "primary falls through to secondary",
			raw: RawFacility{
				Lat:    json.RawMessage(`"unknown"`),
				GeoLat: json.RawMessage(`-6.9`),
				Lng:    json.RawMessage(`null`),
				GeoLng: json.RawMessage(`107.6`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NormalizeFacility(tt.raw)
			require.True(t, f.HasCoordinates())
			assert.Equal(t, -6.9, f.Coord.Lat)
			assert.Equal(t, 107.6, f.Coord.Lng)
		})
	}
}

func TestNormalizeFacility_PartialPairStaysUnresolved(t *testing.T) {
	f := NormalizeFacility(RawFacility{
		Lat: json.RawMessage(`-6.2`),
		Lng: json.RawMessage(`"not a number"`),
	})
	assert.False(t, f.HasCoordinates())
	assert.Nil(t, f.Coord)
}

func TestNormalizeFacility_NoCoordinateFields(t *testing.T) {
	f := NormalizeFacility(RawFacility{ID: 7, Name: "CV Sumber Rezeki", Address: "Jl. A"})
	assert.False(t, f.HasCoordinates())
	assert.Equal(t, int64(7), f.ID)
	assert.Equal(t, "Jl. A", f.Address)
}

func TestDecodeFacilityList(t *testing.T) {
	payload := []byte(`{
		"data": [
			{"id": 1, "name": "PT A", "address": "Jl. A"},
			{"id": 2, "name": "PT B", "address": "Jl. B", "lat": -6.2, "lng": 106.8}
		]
	}`)

	list, err := DecodeFacilityList(payload)
	require.NoError(t, err)

	want := []Facility{
		{ID: 1, Name: "PT A", Address: "Jl. A"},
		{ID: 2, Name: "PT B", Address: "Jl. B", Coord: &Coordinate{Lat: -6.2, Lng: 106.8}},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("facility list mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFacilityList_Invalid(t *testing.T) {
	_, err := DecodeFacilityList([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeFacilityList_MissingData(t *testing.T) {
	list, err := DecodeFacilityList([]byte(`{"message":"ok"}`))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFacility_GeocodeQuery(t *testing.T) {
	assert.Equal(t, "Jl. Sudirman 1", Facility{Name: "PT A", Address: "Jl. Sudirman 1"}.GeocodeQuery())
	assert.Equal(t, "PT A", Facility{Name: "PT A"}.GeocodeQuery())
	assert.Empty(t, Facility{}.GeocodeQuery())

	// The query is verbatim: surrounding whitespace is part of the cache key.
	assert.Equal(t, " Jl. B ", Facility{Address: " Jl. B "}.GeocodeQuery())
}

func TestFacility_GoogleMapsURL(t *testing.T) {
	f := Facility{Name: "PT A", Address: "Jl. Asia Afrika 8, Bandung"}
	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&query=Jl.+Asia+Afrika+8%2C+Bandung",
		f.GoogleMapsURL())

	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&query=Lokasi+PKL",
		Facility{}.GoogleMapsURL())
}

func TestFacility_MatchesQuery(t *testing.T) {
	f := Facility{
		Name:          "PT Telkom Indonesia",
		Address:       "Jl. Japati 1, Bandung",
		Sector:        "Telekomunikasi",
		ContactPerson: "Budi Santoso",
		Email:         "pkl@telkom.co.id",
	}

	assert.True(t, f.MatchesQuery("telkom"))
	assert.True(t, f.MatchesQuery("BANDUNG"))
	assert.True(t, f.MatchesQuery("budi"))
	assert.True(t, f.MatchesQuery("  japati "))
	assert.True(t, f.MatchesQuery(""))
	assert.False(t, f.MatchesQuery("surabaya"))
}

func TestFilterFacilities(t *testing.T) {
	list := []Facility{
		{ID: 1, Name: "PT A", Sector: "IT"},
		{ID: 2, Name: "PT B", Sector: "Manufaktur"},
		{ID: 3, Name: "CV C", Sector: "IT"},
	}

	assert.Len(t, FilterFacilities(list, "", ""), 3)
	assert.Len(t, FilterFacilities(list, "", "IT"), 2)

	got := FilterFacilities(list, "pt", "IT")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	assert.Empty(t, FilterFacilities(list, "zzz", ""))
}

func TestUniqueSectors(t *testing.T) {
	list := []Facility{
		{Sector: "Manufaktur"},
		{Sector: "IT"},
		{Sector: ""},
		{Sector: "IT"},
		{Sector: "Agribisnis"},
	}
	assert.Equal(t, []string{"Agribisnis", "IT", "Manufaktur"}, UniqueSectors(list))
}
