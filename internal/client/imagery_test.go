package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/domain/walk"
)

var imageryPath = []walk.Coordinate{
	{Lat: 35.681391, Lon: 139.766103},
	{Lat: 35.658034, Lon: 139.701636},
}

func TestSatelliteImagery_FetchesAndEncodes(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.NotEmpty(t, q.Get("bbox"))
		assert.Equal(t, "512", q.Get("width"))
		assert.Equal(t, "512", q.Get("height"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	s := NewSatelliteImagery(srv.URL, 512, 512, 0.1, srv.Client(), zap.NewNop())

	img, err := s.ResolveImage(context.Background(), imageryPath)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(payload), img.Data)
}

func TestSatelliteImagery_CorrectsOctetStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("imagebytes"))
	}))
	defer srv.Close()

	s := NewSatelliteImagery(srv.URL, 512, 512, 0.1, srv.Client(), zap.NewNop())

	img, err := s.ResolveImage(context.Background(), imageryPath)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType, "mislabelled payloads must be corrected to an image type")
}

func TestSatelliteImagery_KeepsDeclaredImageType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	s := NewSatelliteImagery(srv.URL, 512, 512, 0.1, srv.Client(), zap.NewNop())

	img, err := s.ResolveImage(context.Background(), imageryPath)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MediaType)
}

func TestSatelliteImagery_Non2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewSatelliteImagery(srv.URL, 512, 512, 0.1, srv.Client(), zap.NewNop())

	_, err := s.ResolveImage(context.Background(), imageryPath)
	require.Error(t, err)
	assert.Equal(t, walk.ErrFetch, walk.KindOf(err))
}

func TestSatelliteImagery_DegenerateGeometry(t *testing.T) {
	s := NewSatelliteImagery("http://imagery.invalid", 512, 512, 0.1, http.DefaultClient, zap.NewNop())

	_, err := s.ResolveImage(context.Background(), []walk.Coordinate{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}})
	require.Error(t, err)
	assert.Equal(t, walk.ErrGeometry, walk.KindOf(err))
}

func TestNormalizeMediaType(t *testing.T) {
	assert.Equal(t, "image/png", normalizeMediaType(""))
	assert.Equal(t, "image/png", normalizeMediaType("application/octet-stream"))
	assert.Equal(t, "image/png", normalizeMediaType("text/html; charset=utf-8"))
	assert.Equal(t, "image/webp", normalizeMediaType("image/webp"))
	assert.Equal(t, "image/jpeg", normalizeMediaType("image/jpeg; charset=binary"))
}
