// Package geocode turns free-text addresses into coordinates. Providers are
// tried in order and the first hit wins; the built-in table of well-known
// places is the last resort and needs no network.
package geocode

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/1F47E/geohash-zones/pkg/config"
	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/metrics"
)

// ResultPrecision is the precision of Result.Geohash.
const ResultPrecision = 6

var (
	ErrEmptyAddress = errors.New("empty address")
	ErrNotFound     = errors.New("address not found")
)

// Result is a resolved address.
type Result struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Label   string  `json:"label"`
	Source  string  `json:"source"`
	Geohash string  `json:"geohash"`
}

// Provider looks up one query. A miss is (Result{}, false, nil).
type Provider interface {
	Name() string
	Lookup(ctx context.Context, query string) (Result, bool, error)
}

// Resolver runs a query through its providers.
type Resolver struct {
	providers []Provider
	log       *logrus.Logger
	group     singleflight.Group
}

// New returns a resolver trying providers in order.
func New(logger *logrus.Logger, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, log: logging.OrDiscard(logger)}
}

// NewFromConfig builds the maps.co, photon and local chain from cfg. With
// LocalOnly set only the local table is consulted.
func NewFromConfig(cfg config.Config, logger *logrus.Logger) *Resolver {
	if cfg.Geocode.LocalOnly {
		return New(logger, Local{})
	}
	client := &http.Client{Timeout: cfg.GeocodeTimeout()}
	return New(logger,
		&MapsCo{BaseURL: cfg.Geocode.MapsCoURL, APIKey: cfg.Geocode.MapsCoKey, UserAgent: cfg.Geocode.UserAgent, Client: client},
		&Photon{BaseURL: cfg.Geocode.PhotonURL, UserAgent: cfg.Geocode.UserAgent, Client: client},
		Local{},
	)
}

// Resolve looks up address. Concurrent calls for the same address share one
// lookup.
func (r *Resolver) Resolve(ctx context.Context, address string) (Result, error) {
	query := strings.TrimSpace(address)
	if query == "" {
		return Result{}, ErrEmptyAddress
	}

	v, err, _ := r.group.Do(strings.ToLower(query), func() (interface{}, error) {
		return r.lookup(ctx, query)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (r *Resolver) lookup(ctx context.Context, query string) (Result, error) {
	for _, p := range r.providers {
		start := time.Now()
		res, ok, err := p.Lookup(ctx, query)
		metrics.GeocodeDurationMs.WithLabelValues(p.Name()).Observe(float64(time.Since(start).Milliseconds()))

		log := r.log.WithFields(logging.Fields{"source": p.Name(), "query": query})
		switch {
		case err != nil:
			metrics.GeocodeRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
			log.WithError(err).Debug("Geocoder unavailable, trying next")
			continue
		case !ok:
			metrics.GeocodeRequestsTotal.WithLabelValues(p.Name(), "miss").Inc()
			continue
		}

		metrics.GeocodeRequestsTotal.WithLabelValues(p.Name(), "hit").Inc()
		res.Source = p.Name()
		res.Geohash = geohash.Encode(res.Lat, res.Lng, ResultPrecision)
		log.WithField("geohash", res.Geohash).Info("Address resolved")
		return res, nil
	}
	return Result{}, ErrNotFound
}
