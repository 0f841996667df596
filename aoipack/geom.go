package aoipack

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BoundsOf returns the minimal axis-aligned bound enclosing the union of the
// given polygons. The input must contain at least one polygon, and every
// polygon must have an outer ring of at least 3 vertices.
func BoundsOf(polygons []orb.Polygon) (orb.Bound, error) {
	if len(polygons) == 0 {
		return orb.Bound{}, fmt.Errorf("no polygons to compute bounds from")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for i, polygon := range polygons {
		if len(polygon) == 0 || len(polygon[0]) < 3 {
			return orb.Bound{}, fmt.Errorf("polygon %d has fewer than 3 vertices", i)
		}

		b := polygon.Bound()
		minX = math.Min(minX, b.Min.X())
		minY = math.Min(minY, b.Min.Y())
		maxX = math.Max(maxX, b.Max.X())
		maxY = math.Max(maxY, b.Max.Y())
	}

	return orb.Bound{
		Min: orb.Point{minX, minY},
		Max: orb.Point{maxX, maxY},
	}, nil
}
