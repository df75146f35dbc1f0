package geohash

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	mmgeohash "github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleCoordinates = []struct {
	name string
	lat  float64
	lon  float64
}{
	{"Spain", 42.6, -5.6},
	{"Sierra Nevada", 36.5625, -118.125},
	{"San Francisco", 37.7749, -122.4194},
	{"New York", 40.7128, -74.0060},
	{"London", 51.5074, -0.1278},
	{"Sydney", -33.8688, 151.2093},
	{"Tokyo", 35.6762, 139.6503},
	{"Null Island", 0, 0},
	{"North Pole", 90, 0},
	{"South Pole", -90, 0},
	{"Antimeridian east", 12.5, 180},
	{"Antimeridian west", -12.5, -180},
	{"Corner", -90, -180},
	{"Opposite corner", 90, 180},
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		lat       float64
		lon       float64
		precision int
		want      string
	}{
		{"reference vector", 42.6, -5.6, 5, "ezs42"},
		{"default view", 36.5625, -118.125, 2, "9q"},
		{"San Francisco", 37.7749, -122.4194, 6, "9q8yyk"},
		{"New York", 40.7128, -74.0060, 6, "dr5reg"},
		{"London", 51.5074, -0.1278, 6, "gcpvj0"},
		{"zero precision", 42.6, -5.6, 0, ""},
		{"negative precision", 42.6, -5.6, -3, ""},
		{"south-west corner", -90, -180, 3, "000"},
		{"north-east corner", 90, 180, 3, "zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.lat, tt.lon, tt.precision))
		})
	}
}

func TestDecode(t *testing.T) {
	cell, err := Decode("ezs42")
	require.NoError(t, err)

	center := cell.Center()
	assert.InDelta(t, 42.6, center.Lat, cell.Lat.Width()/2)
	assert.InDelta(t, -5.6, center.Lon, cell.Lon.Width()/2)
	assert.True(t, cell.Contains(42.6, -5.6))

	bounds := cell.Bounds()
	assert.Equal(t, cell.Lat.Low, bounds.BottomLeft.Lat)
	assert.Equal(t, cell.Lon.Low, bounds.BottomLeft.Lon)
	assert.Equal(t, cell.Lat.High, bounds.TopRight.Lat)
	assert.Equal(t, cell.Lon.High, bounds.TopRight.Lon)
}

func TestDecodeEmptyIsWorld(t *testing.T) {
	cell, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, Interval{Low: -90, High: 90}, cell.Lat)
	assert.Equal(t, Interval{Low: -180, High: 180}, cell.Lon)
	assert.Equal(t, 0.0, cell.Center().Lat)
	assert.Equal(t, 0.0, cell.Center().Lon)
}

func TestDecodeInvalidCharacter(t *testing.T) {
	for _, hash := range []string{"ezs4a", "EZS42", "9q-", "i", "ezs42 "} {
		t.Run(hash, func(t *testing.T) {
			_, err := Decode(hash)
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.True(t, errors.Is(err, ErrInvalidCharacter))
			assert.Equal(t, hash, decodeErr.Hash)
			assert.Equal(t, hash[decodeErr.Position], decodeErr.Char)
			assert.Equal(t, err, Validate(hash))
		})
	}

	assert.NoError(t, Validate("ezs42"))
}

func TestLengthLaw(t *testing.T) {
	for _, c := range sampleCoordinates {
		for p := 1; p <= 9; p++ {
			assert.Len(t, Encode(c.lat, c.lon, p), p, "%s at precision %d", c.name, p)
		}
	}
}

func TestPrefixLaw(t *testing.T) {
	for _, c := range sampleCoordinates {
		t.Run(c.name, func(t *testing.T) {
			for p := 1; p <= 9; p++ {
				short := Encode(c.lat, c.lon, p)
				for q := p + 1; q <= 9; q++ {
					long := Encode(c.lat, c.lon, q)
					assert.True(t, strings.HasPrefix(long, short), "%q is not a prefix of %q", short, long)
				}
			}
		})
	}
}

func TestContainmentLaw(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	check := func(lat, lon float64) {
		for p := 1; p <= 9; p++ {
			cell, err := Decode(Encode(lat, lon, p))
			require.NoError(t, err)
			assert.True(t, cell.Contains(lat, lon), "(%f, %f) outside cell %q", lat, lon, cell.Hash)
		}
	}

	for _, c := range sampleCoordinates {
		check(c.lat, c.lon)
	}
	for i := 0; i < 500; i++ {
		check(r.Float64()*180-90, r.Float64()*360-180)
	}
}

func TestNestingAndMonotonicShrink(t *testing.T) {
	for _, c := range sampleCoordinates {
		t.Run(c.name, func(t *testing.T) {
			prev, err := Decode(Encode(c.lat, c.lon, 1))
			require.NoError(t, err)

			for p := 2; p <= 9; p++ {
				cell, err := Decode(Encode(c.lat, c.lon, p))
				require.NoError(t, err)

				assert.Less(t, cell.Lat.Width(), prev.Lat.Width(), "lat width at %d", p)
				assert.Less(t, cell.Lon.Width(), prev.Lon.Width(), "lon width at %d", p)
				assert.True(t, prev.Lat.ContainsInterval(cell.Lat))
				assert.True(t, prev.Lon.ContainsInterval(cell.Lon))
				prev = cell
			}
		})
	}
}

func TestCenterConverges(t *testing.T) {
	lat, lon := 37.7749, -122.4194
	prevDist := math.Inf(1)
	for p := 1; p <= 9; p += 2 {
		cell, err := Decode(Encode(lat, lon, p))
		require.NoError(t, err)
		c := cell.Center()
		dist := math.Hypot(c.Lat-lat, c.Lon-lon)
		assert.LessOrEqual(t, dist, math.Hypot(cell.Lat.Width(), cell.Lon.Width())/2)
		assert.Less(t, dist, prevDist)
		prevDist = dist
	}
}

func TestMatchesReferenceLibrary(t *testing.T) {
	for _, c := range sampleCoordinates[:7] {
		for p := 1; p <= 9; p++ {
			want := mmgeohash.EncodeWithPrecision(c.lat, c.lon, uint(p))
			assert.Equal(t, want, Encode(c.lat, c.lon, p), "%s at precision %d", c.name, p)

			cell, err := Decode(want)
			require.NoError(t, err)
			box := mmgeohash.BoundingBox(want)
			assert.InDelta(t, box.MinLat, cell.Lat.Low, 1e-9)
			assert.InDelta(t, box.MaxLat, cell.Lat.High, 1e-9)
			assert.InDelta(t, box.MinLng, cell.Lon.Low, 1e-9)
			assert.InDelta(t, box.MaxLng, cell.Lon.High, 1e-9)
		}
	}
}

func TestNeighbors(t *testing.T) {
	center := "9q8yyk"
	got, err := Neighbors(center)
	require.NoError(t, err)
	require.Len(t, got, 8)

	assert.Equal(t, mmgeohash.Neighbors(center), got)

	seen := map[string]bool{center: true}
	for _, n := range got {
		assert.Len(t, n, len(center))
		assert.False(t, seen[n], "duplicate neighbour %s", n)
		seen[n] = true
	}
}

func TestNeighborEdges(t *testing.T) {
	east, err := Neighbor("z", East)
	require.NoError(t, err)
	assert.Equal(t, "b", east, "east of the north-east corner wraps to the west edge")

	north, err := Neighbor("z", North)
	require.NoError(t, err)
	assert.Empty(t, north)

	_, err = Neighbor("9q!", North)
	assert.True(t, errors.Is(err, ErrInvalidCharacter))

	_, err = Neighbor("9q", Direction(42))
	assert.Error(t, err)
}

func BenchmarkEncode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Encode(37.7749, -122.4194, 9)
	}
}

func BenchmarkDecode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Decode("9q8yykp2c")
	}
}
