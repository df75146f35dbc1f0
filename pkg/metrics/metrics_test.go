package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	before := testutil.ToFloat64(ZoneDrawsTotal.WithLabelValues("fixed"))
	ZoneDrawsTotal.WithLabelValues("fixed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ZoneDrawsTotal.WithLabelValues("fixed")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "geohash_zone_draws_total")
}
