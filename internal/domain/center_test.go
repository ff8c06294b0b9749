package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinates
		wantErr bool
	}{
		{"origin", Coordinates{Lat: 0, Lon: 0}, false},
		{"bengaluru", Coordinates{Lat: 12.9716, Lon: 77.5946}, false},
		{"poles and antimeridian", Coordinates{Lat: -90, Lon: 180}, false},
		{"lat too high", Coordinates{Lat: 90.0001, Lon: 0}, true},
		{"lon too low", Coordinates{Lat: 0, Lon: -180.5}, true},
		{"nan", Coordinates{Lat: math.NaN(), Lon: 0}, true},
		{"inf", Coordinates{Lat: 0, Lon: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDecodeCentersExcludesMalformed(t *testing.T) {
	body := []byte(`[
		{"name":"A","address":"1 Road","latitude":12.97,"longitude":77.59,"contact_info":"080"},
		{"name":"B","address":"2 Road","latitude":"north","longitude":77.6},
		{"name":"C","address":"3 Road","longitude":77.6},
		{"name":"D","address":"4 Road","latitude":120,"longitude":77.6},
		{"name":"","address":"5 Road","latitude":1,"longitude":1},
		{"name":"E","address":"6 Road","latitude":0,"longitude":0}
	]`)

	centers, invalid, err := DecodeCenters(body)
	require.NoError(t, err)

	require.Len(t, centers, 2)
	assert.Equal(t, "A", centers[0].Name)
	assert.Equal(t, Coordinates{Lat: 12.97, Lon: 77.59}, centers[0].Location)
	assert.Equal(t, "E", centers[1].Name)

	require.Len(t, invalid, 4)
	for _, e := range invalid {
		assert.True(t, errors.Is(e, ErrInvalidCenterRecord), "got %v", e)
	}
}

func TestDecodeCentersRejectsNonArray(t *testing.T) {
	_, _, err := DecodeCenters([]byte(`{"detail":"boom"}`))
	assert.Error(t, err)
}

func TestFilterValidCenters(t *testing.T) {
	in := []Center{
		{Name: "ok", Location: Coordinates{Lat: 1, Lon: 1}},
		{Name: "bad", Location: Coordinates{Lat: 91, Lon: 1}},
		{Name: "ok2", Location: Coordinates{Lat: 2, Lon: 2}},
	}

	out, err := FilterValidCenters(in)
	assert.ErrorIs(t, err, ErrInvalidCenterRecord)
	require.Len(t, out, 2)
	assert.Equal(t, "ok", out[0].Name)
	assert.Equal(t, "ok2", out[1].Name)

	out, err = FilterValidCenters(in[:1])
	assert.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestRecordRoundTrip(t *testing.T) {
	c := Center{Name: "EcoMetal Solutions", Address: "45 Green Zone", Location: Coordinates{Lat: 12.9352, Lon: 77.6245}, ContactInfo: "080-87654321"}

	got, err := RecordFromCenter(c).ToCenter()
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
