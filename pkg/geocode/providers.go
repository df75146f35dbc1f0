package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MapsCo queries geocode.maps.co.
type MapsCo struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Client    *http.Client
}

func (m *MapsCo) Name() string { return "geocode.maps.co" }

type mapsCoPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (m *MapsCo) Lookup(ctx context.Context, query string) (Result, bool, error) {
	params := url.Values{"q": {query}, "limit": {"1"}, "format": {"json"}}
	if m.APIKey != "" {
		params.Set("api_key", m.APIKey)
	}
	body, err := get(ctx, m.Client, m.BaseURL, params, m.UserAgent)
	if err != nil {
		return Result{}, false, err
	}

	var places []mapsCoPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return Result{}, false, fmt.Errorf("failed to decode maps.co response: %w", err)
	}
	if len(places) == 0 {
		return Result{}, false, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Result{}, false, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Result{}, false, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}
	return Result{Lat: lat, Lng: lng, Label: places[0].DisplayName}, true, nil
}

// Photon queries photon.komoot.io, which answers with GeoJSON.
type Photon struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func (p *Photon) Name() string { return "photon.komoot.io" }

func (p *Photon) Lookup(ctx context.Context, query string) (Result, bool, error) {
	params := url.Values{"q": {query}, "limit": {"1"}, "lang": {"en"}}
	body, err := get(ctx, p.Client, p.BaseURL, params, p.UserAgent)
	if err != nil {
		return Result{}, false, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to decode photon response: %w", err)
	}
	if len(fc.Features) == 0 {
		return Result{}, false, nil
	}

	f := fc.Features[0]
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return Result{}, false, fmt.Errorf("unexpected photon geometry %T", f.Geometry)
	}

	label := f.Properties.MustString("name", "")
	if label == "" {
		label = f.Properties.MustString("city", query)
	}
	return Result{Lat: pt.Lat(), Lng: pt.Lon(), Label: label}, true, nil
}

func get(ctx context.Context, client *http.Client, base string, params url.Values, userAgent string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
