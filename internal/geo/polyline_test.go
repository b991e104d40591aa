package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

func TestDecodePolyline_RoundTrip(t *testing.T) {
	paths := [][]walk.Coordinate{
		{
			{Lat: 35.681391, Lon: 139.766103},
			{Lat: 35.680501, Lon: 139.765215},
			{Lat: 35.679402, Lon: 139.764001},
		},
		{
			{Lat: -33.865143, Lon: 151.209900},
			{Lat: -33.866000, Lon: 151.210500},
		},
		{
			{Lat: 0, Lon: 0},
			{Lat: 0.000001, Lon: -0.000001},
		},
	}

	for _, path := range paths {
		encoded := EncodePolyline(path)
		decoded, err := DecodePolyline(encoded)
		require.NoError(t, err)
		require.Len(t, decoded, len(path))
		for i := range path {
			assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-6)
			assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-6)
		}
	}
}

func TestDecodePolyline_Deterministic(t *testing.T) {
	encoded := EncodePolyline([]walk.Coordinate{
		{Lat: 35.6581, Lon: 139.7017},
		{Lat: 35.6895, Lon: 139.6917},
	})

	first, err := DecodePolyline(encoded)
	require.NoError(t, err)
	second, err := DecodePolyline(encoded)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodePolyline_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"single value":    "_p~iF",
		"ends mid value":  "_p~iF~ps|U_ulLnnqC_mqNvxq`@_",
		"truncated token": "_p~iF~",
	}

	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePolyline(encoded)
			require.Error(t, err)
			assert.Equal(t, walk.ErrDecode, walk.KindOf(err))
		})
	}
}

func TestDecodePolyline_OutOfRangeRejected(t *testing.T) {
	// 100 degrees latitude is outside WGS84; the decode must reject it
	// instead of truncating.
	encoded := EncodePolyline([]walk.Coordinate{
		{Lat: 100, Lon: 0},
		{Lat: 100.0001, Lon: 0.0001},
	})
	_, err := DecodePolyline(encoded)
	require.Error(t, err)
	assert.Equal(t, walk.ErrDecode, walk.KindOf(err))
}

func TestDecodePolyline_SinglePointRejected(t *testing.T) {
	encoded := EncodePolyline([]walk.Coordinate{{Lat: 10, Lon: 10}})
	_, err := DecodePolyline(encoded)
	require.Error(t, err)
	assert.Equal(t, walk.ErrDecode, walk.KindOf(err))
}
