package aoipack

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// DefaultInclusionThreshold is the minimum percentage of a cell's area that
// must overlap the area of interest for the cell to be kept.
const DefaultInclusionThreshold = 20.0

// FilterByInclusion returns the subsequence of cells whose intersection with
// the AOI polygon covers at least thresholdPercent of the cell's own area.
// Order is preserved. A threshold of 0 keeps every cell, including cells
// that miss the polygon entirely; a threshold of 100 keeps only cells fully
// contained in it.
func FilterByInclusion(cells []orb.Bound, aoi orb.Polygon, thresholdPercent float64) []orb.Bound {
	kept := make([]orb.Bound, 0, len(cells))

	for _, cell := range cells {
		if inclusionPercent(cell, aoi) >= thresholdPercent {
			kept = append(kept, cell)
		}
	}

	return kept
}

func inclusionPercent(cell orb.Bound, aoi orb.Polygon) float64 {
	return multiInclusionPercent(cell, orb.MultiPolygon{aoi})
}

func multiInclusionPercent(cell orb.Bound, aoi orb.MultiPolygon) float64 {
	cellArea := math.Abs(planar.Area(cell))
	if cellArea == 0 {
		return 0
	}

	// clip mutates its input, so work on a copy
	intersection := clip.MultiPolygon(cell, aoi.Clone())

	var intersectionArea float64
	for _, member := range intersection {
		intersectionArea += math.Abs(planar.Area(member))
	}

	return 100 * intersectionArea / cellArea
}
