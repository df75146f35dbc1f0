package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/geohash-zones/pkg/config"
)

type stubProvider struct {
	name  string
	res   Result
	ok    bool
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Lookup(context.Context, string) (Result, bool, error) {
	s.calls.Add(1)
	return s.res, s.ok, s.err
}

func TestResolveEmpty(t *testing.T) {
	r := New(nil, Local{})
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := r.Resolve(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyAddress)
	}
}

func TestResolveFallsThrough(t *testing.T) {
	down := &stubProvider{name: "down", err: errors.New("connection refused")}
	empty := &stubProvider{name: "empty"}
	hit := &stubProvider{name: "hit", ok: true, res: Result{Lat: 57.64911, Lng: 10.40744, Label: "Skagen"}}
	never := &stubProvider{name: "never", ok: true}

	r := New(nil, down, empty, hit, never)
	res, err := r.Resolve(context.Background(), " Skagen ")
	require.NoError(t, err)

	assert.Equal(t, "hit", res.Source)
	assert.Equal(t, "Skagen", res.Label)
	assert.Equal(t, "u4pruy", res.Geohash)
	assert.EqualValues(t, 1, down.calls.Load())
	assert.EqualValues(t, 1, empty.calls.Load())
	assert.Zero(t, never.calls.Load())
}

func TestResolveNotFound(t *testing.T) {
	r := New(nil, &stubProvider{name: "empty"}, Local{})
	_, err := r.Resolve(context.Background(), "zzzz qqqq")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal(t *testing.T) {
	tests := []struct {
		name  string
		query string
		label string
		ok    bool
	}{
		{"exact", "paris", "Paris, France", true},
		{"case and space", "  LONDON ", "London, UK", true},
		{"exact beats substring", "moscow", "Moscow, Russia", true},
		{"key contains query", "kremlin", "Moscow Kremlin, Moscow", true},
		{"query contains key", "hotels in tokyo", "Tokyo, Japan", true},
		{"first match in order", "square", "Red Square, Moscow", true},
		{"miss", "atlantis", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok, err := Local{}.Lookup(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.label, res.Label)
		})
	}
}

func TestMapsCo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eiffel tower", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"48.8582599","lon":"2.2945006","display_name":"Eiffel Tower, Paris"}]`))
	}))
	defer srv.Close()

	m := &MapsCo{BaseURL: srv.URL, APIKey: "secret", UserAgent: "test-agent", Client: srv.Client()}
	res, ok, err := m.Lookup(context.Background(), "eiffel tower")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 48.8582599, res.Lat, 1e-9)
	assert.InDelta(t, 2.2945006, res.Lng, 1e-9)
	assert.Equal(t, "Eiffel Tower, Paris", res.Label)
}

func TestMapsCoErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		ok     bool
		err    bool
	}{
		{"empty list", http.StatusOK, `[]`, false, false},
		{"server error", http.StatusInternalServerError, ``, false, true},
		{"rate limited", http.StatusTooManyRequests, ``, false, true},
		{"garbage", http.StatusOK, `<html>`, false, true},
		{"bad latitude", http.StatusOK, `[{"lat":"north","lon":"1"}]`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m := &MapsCo{BaseURL: srv.URL, Client: srv.Client()}
			_, ok, err := m.Lookup(context.Background(), "x")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.err, err != nil, "err = %v", err)
		})
	}
}

func TestPhoton(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ok    bool
		label string
	}{
		{
			"named feature",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[13.3777,52.5163]},"properties":{"name":"Brandenburger Tor","city":"Berlin"}}]}`,
			true, "Brandenburger Tor",
		},
		{
			"city fallback",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[13.3777,52.5163]},"properties":{"city":"Berlin"}}]}`,
			true, "Berlin",
		},
		{
			"query fallback",
			`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[13.3777,52.5163]},"properties":{}}]}`,
			true, "tor",
		},
		{"no features", `{"type":"FeatureCollection","features":[]}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "en", r.URL.Query().Get("lang"))
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := &Photon{BaseURL: srv.URL, Client: srv.Client()}
			res, ok, err := p.Lookup(context.Background(), "tor")
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.label, res.Label)
			if ok {
				assert.Equal(t, 52.5163, res.Lat)
				assert.Equal(t, 13.3777, res.Lng)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	mapsCo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer mapsCo.Close()
	photon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer photon.Close()

	cfg := config.Default()
	cfg.Geocode.MapsCoURL = mapsCo.URL
	cfg.Geocode.PhotonURL = photon.URL

	res, err := NewFromConfig(cfg, nil).Resolve(context.Background(), "Times Square")
	require.NoError(t, err)
	assert.Equal(t, "local database", res.Source)
	assert.Equal(t, "Times Square, NYC", res.Label)
	assert.Equal(t, "dr5ru7", res.Geohash)

	cfg.Geocode.LocalOnly = true
	r := NewFromConfig(cfg, nil)
	require.Len(t, r.providers, 1)
	assert.IsType(t, Local{}, r.providers[0])
}
