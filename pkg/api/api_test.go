package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/geohash-zones/pkg/config"
	"github.com/1F47E/geohash-zones/pkg/geocode"
)

func setupTestServer() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Geocode.LocalOnly = true
	return New(nil, geocode.NewFromConfig(cfg, nil), nil)
}

func get(t *testing.T, engine *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	w := get(t, setupTestServer(), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestEncode(t *testing.T) {
	engine := setupTestServer()

	tests := []struct {
		name string
		url  string
		code int
		hash string
	}{
		{"explicit precision", "/api/v1/encode?lat=42.6&lng=-5.6&precision=5", http.StatusOK, "ezs42"},
		{"zoom picks precision", "/api/v1/encode?lat=36.5625&lng=-118.125&zoom=6", http.StatusOK, "9q"},
		{"default precision", "/api/v1/encode?lat=57.64911&lng=10.40744", http.StatusOK, "u4pruydqq"},
		{"zero is a coordinate", "/api/v1/encode?lat=0&lng=0&precision=1", http.StatusOK, "s"},
		{"missing lng", "/api/v1/encode?lat=42.6", http.StatusBadRequest, ""},
		{"latitude out of range", "/api/v1/encode?lat=91&lng=0", http.StatusBadRequest, ""},
		{"precision out of range", "/api/v1/encode?lat=1&lng=1&precision=12", http.StatusBadRequest, ""},
		{"nan latitude", "/api/v1/encode?lat=NaN&lng=0", http.StatusBadRequest, ""},
		{"infinite zoom", "/api/v1/encode?lat=1&lng=1&zoom=Inf", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, engine, tt.url)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.hash != "" {
				assert.Equal(t, tt.hash, decodeBody(t, w)["hash"])
			}
		})
	}
}

func TestDecode(t *testing.T) {
	engine := setupTestServer()

	w := get(t, engine, "/api/v1/decode/ezs42")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 5, body["precision"])
	assert.Equal(t, "~2.4 km", body["label"])
	center := body["center"].(map[string]interface{})
	assert.InDelta(t, 42.605, center["lat"], 0.01)
	assert.InDelta(t, -5.603, center["lon"], 0.01)

	w = get(t, engine, "/api/v1/decode/ezs4a")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "invalid character")
}

func TestNeighbors(t *testing.T) {
	w := get(t, setupTestServer(), "/api/v1/neighbors/9q")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Hash      string            `json:"hash"`
		Neighbors map[string]string `json:"neighbors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "9q", body.Hash)
	assert.Len(t, body.Neighbors, 8)
	assert.Equal(t, "9r", body.Neighbors["n"])
	assert.Equal(t, "9w", body.Neighbors["e"])
	assert.Equal(t, "9x", body.Neighbors["ne"])
}

func TestPrecision(t *testing.T) {
	engine := setupTestServer()

	w := get(t, engine, "/api/v1/precision?zoom=16")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 6, body["precision"])
	assert.Equal(t, "6 characters (~1.2 km)", body["description"])

	assert.Equal(t, http.StatusBadRequest, get(t, engine, "/api/v1/precision").Code)
}

func TestLive(t *testing.T) {
	engine := setupTestServer()

	w := get(t, engine, "/api/v1/live?lat=36.5625&lng=-118.125&zoom=6")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["rows"], 9)
	assert.Equal(t, "9q", body["optimal"].(map[string]interface{})["hash"])

	w = get(t, engine, "/api/v1/live?lat=36.5625&lng=-118.125&format=geojson")
	require.Equal(t, http.StatusOK, w.Code)
	fc, err := orbjson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 10)
}

func TestCover(t *testing.T) {
	engine := setupTestServer()

	w := get(t, engine, "/api/v1/cover?south=30&west=-130&north=45&east=-110&zoom=6")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fc, err := orbjson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 9)
	assert.Empty(t, w.Header().Get("X-Cover-Truncated"))

	w = get(t, engine, "/api/v1/cover?south=-90&west=-180&north=90&east=180&precision=4")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Cover-Truncated"))

	assert.Equal(t, http.StatusBadRequest, get(t, engine, "/api/v1/cover?south=30&west=-130&north=45&east=-110").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, engine, "/api/v1/cover?south=50&west=-130&north=45&east=-110&zoom=3").Code)
}

func TestNonFiniteRejected(t *testing.T) {
	engine := setupTestServer()

	for _, url := range []string{
		"/api/v1/live?lat=NaN&lng=0",
		"/api/v1/live?lat=0&lng=NaN&zoom=12",
		"/api/v1/precision?zoom=Inf",
		"/api/v1/precision?zoom=NaN",
		"/api/v1/cover?south=NaN&west=0&north=1&east=1&precision=3",
	} {
		w := get(t, engine, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.Contains(t, decodeBody(t, w)["error"], "must be a finite number", url)
	}
}

func TestCell(t *testing.T) {
	w := get(t, setupTestServer(), "/api/v1/cell/u4pruy")
	require.Equal(t, http.StatusOK, w.Code)
	f, err := orbjson.UnmarshalFeature(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "u4pruy", f.Properties.MustString("geohash"))
	assert.Equal(t, "Polygon", f.Geometry.GeoJSONType())
}

func TestGeocode(t *testing.T) {
	engine := setupTestServer()

	w := get(t, engine, "/api/v1/geocode?q=Times+Square")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "dr5ru7", body["geohash"])
	assert.Equal(t, "local database", body["source"])

	w = get(t, engine, "/api/v1/geocode?q=")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter an address", decodeBody(t, w)["error"])

	w = get(t, engine, "/api/v1/geocode?q=atlantis")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Address not found. Try a city name or landmark", decodeBody(t, w)["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	engine := setupTestServer()
	get(t, engine, "/health")

	w := get(t, engine, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "geohash_api_requests_total"))
}
