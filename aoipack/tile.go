package aoipack

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MaxRasterDimension is the largest pixel width or height requested for a
// single tile. Download services cap the raster size they will render for
// one request; the grid partition exists to keep every cell under this
// ceiling at the requested resolution.
const MaxRasterDimension = 2500

// Tile is one cell of an AOI partition grid.
type Tile struct {
	Bound orb.Bound
	Row   int
	Col   int
}

// ID returns the tile's filesystem-safe identifier.
func (t Tile) ID() string {
	return FormatTileID(t.Bound)
}

// Tiles partitions the bounding box enclosing every member of the AOI into
// a grid of roughly targetCount cells and returns the cells that overlap the
// AOI by at least thresholdPercent of their own area, in row-major order.
// A multi-island AOI is covered in full; overlap against any member counts.
func Tiles(aoi orb.MultiPolygon, targetCount int, thresholdPercent float64) ([]Tile, error) {
	bound, err := BoundsOf(aoi)
	if err != nil {
		return nil, err
	}

	cols, _, err := GridShape(bound, targetCount)
	if err != nil {
		return nil, err
	}

	cells, err := PartitionGrid(bound, targetCount)
	if err != nil {
		return nil, err
	}

	tiles := make([]Tile, 0, len(cells))
	for i, cell := range cells {
		if multiInclusionPercent(cell, aoi) < thresholdPercent {
			continue
		}

		tiles = append(tiles, Tile{
			Bound: cell,
			Row:   i / cols,
			Col:   i % cols,
		})
	}

	return tiles, nil
}

// FormatTileID encodes a tile bound as a string safe for use as a file or
// directory name: the four bounds joined by underscores, with decimal points
// replaced by commas. The encoding is injective; no two distinct bounds map
// to the same identifier.
func FormatTileID(bound orb.Bound) string {
	parts := []string{
		strconv.FormatFloat(bound.Min.X(), 'g', -1, 64),
		strconv.FormatFloat(bound.Min.Y(), 'g', -1, 64),
		strconv.FormatFloat(bound.Max.X(), 'g', -1, 64),
		strconv.FormatFloat(bound.Max.Y(), 'g', -1, 64),
	}

	return strings.ReplaceAll(strings.Join(parts, "_"), ".", ",")
}

// ParseTileID recovers the bound encoded by FormatTileID.
func ParseTileID(id string) (orb.Bound, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("tile id %q must have 4 parts, has %d", id, len(parts))
	}

	values := make([]float64, 4)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.ReplaceAll(part, ",", "."), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("tile id %q part %d: %w", id, i, err)
		}
		values[i] = value
	}

	return orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}, nil
}

// RasterSize returns the pixel dimensions a tile's raster should be requested
// at for the given ground resolution, capped at MaxRasterDimension on each
// axis. Ground distances are measured along the tile's southern and western
// edges.
func RasterSize(bound orb.Bound, metersPerPixel float64) (width int, height int, err error) {
	if metersPerPixel <= 0 {
		return 0, 0, fmt.Errorf("resolution must be positive, got %f", metersPerPixel)
	}

	widthMeters := geo.Distance(bound.Min, orb.Point{bound.Max.X(), bound.Min.Y()})
	heightMeters := geo.Distance(bound.Min, orb.Point{bound.Min.X(), bound.Max.Y()})

	width = clampDimension(math.Ceil(widthMeters / metersPerPixel))
	height = clampDimension(math.Ceil(heightMeters / metersPerPixel))

	return width, height, nil
}

func clampDimension(d float64) int {
	if d < 1 {
		return 1
	}
	if d > MaxRasterDimension {
		return MaxRasterDimension
	}
	return int(d)
}
