// Package geohash encodes coordinates into base-32 geohash strings and decodes
// them back into the cell they name.
//
// A geohash is built by bisecting the longitude range [-180, 180] and the
// latitude range [-90, 90] in turn, longitude first. Each bisection emits one
// bit (1 for the upper half) and every five bits select one symbol of the
// alphabet. Later symbols only refine earlier ones, so a hash of length n is
// always a prefix of the longer hash of the same coordinate.
//
// Cell sizes for the precisions used by this module:
//
//	1 → ~5000 km    4 → ~20 km     7 → ~152 m
//	2 → ~630 km     5 → ~2.4 km    8 → ~19 m
//	3 → ~78 km      6 → ~1.2 km    9 → ~2.4 m
package geohash

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1F47E/geohash-zones/pkg/models"
)

// Alphabet is the geohash symbol set. 'a', 'i', 'l' and 'o' are left out.
const Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

const bitsPerChar = 5

var (
	// ErrInvalidCharacter is matched by every DecodeError.
	ErrInvalidCharacter = errors.New("invalid geohash character")

	decodeMap [256]int8
)

func init() {
	for i := range decodeMap {
		decodeMap[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		decodeMap[Alphabet[i]] = int8(i)
	}
}

// DecodeError reports a symbol outside the geohash alphabet.
type DecodeError struct {
	Hash     string
	Char     byte
	Position int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("geohash %q: invalid character %q at position %d", e.Hash, e.Char, e.Position)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidCharacter
}

// Interval is a closed range [Low, High] with Low <= High.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the midpoint of the interval.
func (i Interval) Mid() float64 {
	return (i.Low + i.High) / 2
}

// Width returns High - Low.
func (i Interval) Width() float64 {
	return i.High - i.Low
}

// Contains reports whether v lies inside the closed interval.
func (i Interval) Contains(v float64) bool {
	return v >= i.Low && v <= i.High
}

// ContainsInterval reports whether o lies entirely inside i.
func (i Interval) ContainsInterval(o Interval) bool {
	return o.Low >= i.Low && o.High <= i.High
}

// bisect narrows the interval to its upper half when upper is set and to the
// lower half otherwise.
func (i *Interval) bisect(upper bool) {
	mid := i.Mid()
	if upper {
		i.Low = mid
	} else {
		i.High = mid
	}
}

// Cell is the rectangular region named by a geohash.
type Cell struct {
	Hash string   `json:"hash"`
	Lat  Interval `json:"lat"`
	Lon  Interval `json:"lon"`
}

// Center returns the midpoint of the cell.
func (c Cell) Center() models.Location {
	return models.Location{Lat: c.Lat.Mid(), Lon: c.Lon.Mid()}
}

// Bounds returns the south-west and north-east corners of the cell.
func (c Cell) Bounds() models.BoundingBox {
	return models.BoundingBox{
		BottomLeft: models.Location{Lat: c.Lat.Low, Lon: c.Lon.Low},
		TopRight:   models.Location{Lat: c.Lat.High, Lon: c.Lon.High},
	}
}

// Contains reports whether the coordinate lies inside the cell.
func (c Cell) Contains(lat, lon float64) bool {
	return c.Lat.Contains(lat) && c.Lon.Contains(lon)
}

// Width returns the longitude span of the cell in degrees.
func (c Cell) Width() float64 {
	return c.Lon.Width()
}

// Height returns the latitude span of the cell in degrees.
func (c Cell) Height() float64 {
	return c.Lat.Width()
}

// Precision returns the number of symbols in the cell's hash.
func (c Cell) Precision() int {
	return len(c.Hash)
}

func world() (lat, lon Interval) {
	return Interval{Low: -90, High: 90}, Interval{Low: -180, High: 180}
}

// Encode returns the geohash of (lat, lon) with the given number of symbols.
// A precision of zero or less yields the empty string.
func Encode(lat, lon float64, precision int) string {
	if precision <= 0 {
		return ""
	}

	latRange, lonRange := world()

	var hash strings.Builder
	hash.Grow(precision)
	even := true
	bit := 0
	ch := 0

	for hash.Len() < precision {
		if even {
			upper := lon >= lonRange.Mid()
			if upper {
				ch |= 1 << (bitsPerChar - 1 - bit)
			}
			lonRange.bisect(upper)
		} else {
			upper := lat >= latRange.Mid()
			if upper {
				ch |= 1 << (bitsPerChar - 1 - bit)
			}
			latRange.bisect(upper)
		}
		even = !even
		bit++
		if bit == bitsPerChar {
			hash.WriteByte(Alphabet[ch])
			bit = 0
			ch = 0
		}
	}

	return hash.String()
}

// EncodeLocation is Encode for a models.Location.
func EncodeLocation(loc models.Location, precision int) string {
	return Encode(loc.Lat, loc.Lon, precision)
}

// Decode replays the bisection encoded by hash and returns the resulting
// cell. The empty hash decodes to the whole world.
func Decode(hash string) (Cell, error) {
	latRange, lonRange := world()
	even := true

	for i := 0; i < len(hash); i++ {
		cd := decodeMap[hash[i]]
		if cd < 0 {
			return Cell{}, &DecodeError{Hash: hash, Char: hash[i], Position: i}
		}
		for j := bitsPerChar - 1; j >= 0; j-- {
			upper := (cd>>j)&1 == 1
			if even {
				lonRange.bisect(upper)
			} else {
				latRange.bisect(upper)
			}
			even = !even
		}
	}

	return Cell{Hash: hash, Lat: latRange, Lon: lonRange}, nil
}

// Validate returns a DecodeError for the first symbol outside the alphabet.
func Validate(hash string) error {
	for i := 0; i < len(hash); i++ {
		if decodeMap[hash[i]] < 0 {
			return &DecodeError{Hash: hash, Char: hash[i], Position: i}
		}
	}
	return nil
}
