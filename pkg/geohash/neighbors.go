package geohash

import (
	"fmt"
)

// Direction names one of the eight cells around a geohash.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionOffsets = [...]struct{ dLat, dLon float64 }{
	North:     {1, 0},
	NorthEast: {1, 1},
	East:      {0, 1},
	SouthEast: {-1, 1},
	South:     {-1, 0},
	SouthWest: {-1, -1},
	West:      {0, -1},
	NorthWest: {1, -1},
}

func (d Direction) String() string {
	switch d {
	case North:
		return "n"
	case NorthEast:
		return "ne"
	case East:
		return "e"
	case SouthEast:
		return "se"
	case South:
		return "s"
	case SouthWest:
		return "sw"
	case West:
		return "w"
	case NorthWest:
		return "nw"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Neighbor returns the hash of the same precision adjacent to hash in the
// given direction. Longitude wraps at the antimeridian; stepping past a pole
// returns the empty string.
func Neighbor(hash string, dir Direction) (string, error) {
	if dir < North || dir > NorthWest {
		return "", fmt.Errorf("unknown direction %d", int(dir))
	}
	cell, err := Decode(hash)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", nil
	}

	off := directionOffsets[dir]
	center := cell.Center()
	lat := center.Lat + off.dLat*cell.Lat.Width()
	lon := center.Lon + off.dLon*cell.Lon.Width()

	if lat > 90 || lat < -90 {
		return "", nil
	}
	if lon >= 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}

	return Encode(lat, lon, len(hash)), nil
}

// Neighbors returns the eight neighbours of hash in the order N, NE, E, SE,
// S, SW, W, NW. Entries past a pole are empty.
func Neighbors(hash string) ([]string, error) {
	out := make([]string, 0, 8)
	for d := North; d <= NorthWest; d++ {
		n, err := Neighbor(hash, d)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
