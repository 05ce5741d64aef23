package geo

import (
	"iter"

	"github.com/paulmach/orb"
)

// TileSeq yields a regular grid of tileSizeDeg-degree cells partitioning
// bound, anchored at the minimum corner, stepping along longitude first and
// then latitude. The final row/column may extend past the outer bound so
// partial edges are still covered; tiles never overlap except at shared
// edges. The sequence is lazy and restartable: each range re-walks the grid
// from the anchor.
//
// Smaller tiles trade analysis granularity for linearly more provider calls.
func TileSeq(bound orb.Bound, tileSizeDeg float64) iter.Seq[orb.Bound] {
	return func(yield func(orb.Bound) bool) {
		if tileSizeDeg <= 0 {
			return
		}
		for lon := bound.Min.Lon(); lon < bound.Max.Lon(); lon += tileSizeDeg {
			for lat := bound.Min.Lat(); lat < bound.Max.Lat(); lat += tileSizeDeg {
				tile := orb.Bound{
					Min: orb.Point{lon, lat},
					Max: orb.Point{lon + tileSizeDeg, lat + tileSizeDeg},
				}
				if !yield(tile) {
					return
				}
			}
		}
	}
}

// Tiles collects the full grid into a slice.
func Tiles(bound orb.Bound, tileSizeDeg float64) []orb.Bound {
	var tiles []orb.Bound
	for tile := range TileSeq(bound, tileSizeDeg) {
		tiles = append(tiles, tile)
	}
	return tiles
}
