package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkmitra/pkl-location-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	at := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	event := domain.ResolvedLocation{
		FacilityID: 42,
		Name:       "PT Alpha",
		Query:      "Jl. Sudirman 1, Jakarta",
		Coordinate: domain.Coordinate{Lat: -6.21, Lng: 106.82},
		Source:     domain.SourceBatch,
		ResolvedAt: at,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("42"), msg.Key)
	assert.Contains(t, string(msg.Value), `"facility_id":42`)
	assert.Contains(t, string(msg.Value), `"lat":-6.21`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "source", msg.Headers[0].Key)
	assert.Equal(t, []byte("batch"), msg.Headers[0].Value)
	assert.Equal(t, "resolved_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[1].Value)
}
