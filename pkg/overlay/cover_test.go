package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/models"
)

func box(south, west, north, east float64) models.BoundingBox {
	return models.BoundingBox{
		BottomLeft: models.Location{Lat: south, Lon: west},
		TopRight:   models.Location{Lat: north, Lon: east},
	}
}

func TestCellSize(t *testing.T) {
	lat, lon := CellSize(1)
	assert.Equal(t, 45.0, lat)
	assert.Equal(t, 45.0, lon)

	lat, lon = CellSize(2)
	assert.Equal(t, 5.625, lat)
	assert.Equal(t, 11.25, lon)

	for p := 1; p <= 9; p++ {
		cell, err := geohash.Decode(geohash.Encode(10, 10, p))
		require.NoError(t, err)
		lat, lon := CellSize(p)
		assert.Equal(t, cell.Height(), lat, "precision %d", p)
		assert.Equal(t, cell.Width(), lon, "precision %d", p)
	}
}

func TestCoverBoxWorld(t *testing.T) {
	hashes, truncated := CoverBox(box(-90, -180, 90, 180), 1, 100)
	assert.False(t, truncated)
	assert.Len(t, hashes, 32)
	assert.ElementsMatch(t, splitAlphabet(), hashes)
}

func TestCoverBoxIntersectsEveryCell(t *testing.T) {
	b := box(30, -130, 45, -110)
	hashes, truncated := CoverBox(b, 2, 100)
	require.False(t, truncated)
	assert.Len(t, hashes, 9)

	seen := map[string]bool{}
	for _, h := range hashes {
		assert.False(t, seen[h], "duplicate %s", h)
		seen[h] = true

		cell, err := geohash.Decode(h)
		require.NoError(t, err)
		assert.True(t, cell.Bounds().Intersects(b), "%s does not touch the box", h)
	}
	assert.True(t, seen["9q"])
	assert.True(t, seen["9r"])
}

func TestCoverBoxDegenerate(t *testing.T) {
	hashes, truncated := CoverBox(box(42.6, -5.6, 42.6, -5.6), 5, 10)
	assert.False(t, truncated)
	assert.Equal(t, []string{"ezs42"}, hashes)
}

func TestCoverBoxAntimeridian(t *testing.T) {
	hashes, _ := CoverBox(box(-10, 170, 10, -170), 2, 100)
	require.NotEmpty(t, hashes)

	east, west := false, false
	for _, h := range hashes {
		cell, err := geohash.Decode(h)
		require.NoError(t, err)
		if cell.Lon.High == 180 {
			east = true
		}
		if cell.Lon.Low == -180 {
			west = true
		}
	}
	assert.True(t, east)
	assert.True(t, west)
}

func TestCoverBoxTruncates(t *testing.T) {
	hashes, truncated := CoverBox(box(-90, -180, 90, 180), 2, 50)
	assert.True(t, truncated)
	assert.Len(t, hashes, 50)

	hashes, truncated = CoverBox(box(0, 0, 1, 1), 0, 50)
	assert.False(t, truncated)
	assert.Empty(t, hashes)
}

func splitAlphabet() []string {
	out := make([]string, 0, len(geohash.Alphabet))
	for _, c := range geohash.Alphabet {
		out = append(out, string(c))
	}
	return out
}
