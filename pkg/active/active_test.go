package active

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/models"
)

var sf = models.Location{Lat: 37.7749, Lon: -122.4194}

func TestResolve(t *testing.T) {
	live := livehash.Build(sf)

	tests := []struct {
		name string
		in   Inputs
		want Selection
	}{
		{
			name: "map not loaded",
			in:   Inputs{Mode: Fixed, FixedPrecision: 7, Center: sf, Zoom: 12, Live: live},
			want: Selection{Mode: Fixed},
		},
		{
			name: "no live set",
			in:   Inputs{Mode: Optimal, Center: sf, Zoom: 12, MapLoaded: true},
			want: Selection{Mode: Optimal},
		},
		{
			name: "optimal follows zoom",
			in:   Inputs{Mode: Optimal, FixedPrecision: 7, Center: sf, Zoom: 16, MapLoaded: true, Live: live},
			want: Selection{Hash: "9q8yyk", Precision: 6, Mode: Optimal},
		},
		{
			name: "optimal at world zoom",
			in:   Inputs{Mode: Optimal, Center: sf, Zoom: 0, MapLoaded: true, Live: live},
			want: Selection{Hash: "9", Precision: 1, Mode: Optimal},
		},
		{
			name: "fixed ignores zoom",
			in:   Inputs{Mode: Fixed, FixedPrecision: 4, Center: sf, Zoom: 20, MapLoaded: true, Live: live},
			want: Selection{Hash: "9q8y", Precision: 4, Mode: Fixed},
		},
		{
			name: "fixed precision is clamped",
			in:   Inputs{Mode: Fixed, FixedPrecision: 14, Center: sf, Zoom: 2, MapLoaded: true, Live: live},
			want: Selection{Hash: live.Hash(9), Precision: 9, Mode: Fixed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}
}

func TestResolveFixedUsesCurrentCenter(t *testing.T) {
	stale := livehash.Build(models.Location{Lat: 42.6, Lon: -5.6})
	sel := Resolve(Inputs{Mode: Fixed, FixedPrecision: 6, Center: sf, MapLoaded: true, Live: stale})

	assert.Equal(t, "9q8yyk", sel.Hash)
	assert.True(t, sel.Ready())
	assert.Equal(t, "~1.2 km", sel.Label())
}

func TestSentinel(t *testing.T) {
	sel := Resolve(Inputs{Mode: Optimal})
	assert.False(t, sel.Ready())
	assert.Empty(t, sel.Hash)
	assert.Zero(t, sel.Precision)
	assert.Empty(t, sel.Label())
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode(" Fixed ")
	require.NoError(t, err)
	assert.Equal(t, Fixed, got)

	_, err = ParseMode("search")
	assert.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("fixed")))
	assert.Equal(t, Fixed, m)
	text, err := Optimal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "optimal", string(text))
	assert.Equal(t, "Mode(5)", Mode(5).String())
}
