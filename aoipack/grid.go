package aoipack

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GridShape computes the column and row counts for partitioning the given
// bound into roughly targetCount cells while keeping the cell aspect ratio
// close to the bound's own aspect ratio.
//
// When cols*rows falls short of targetCount, one extra column is added. This
// is an approximation, not a guarantee: for very wide or very tall bounds the
// corrected grid can still hold fewer than targetCount cells. Callers that
// need the real cell count should use the returned cols and rows rather than
// assuming targetCount.
func GridShape(bound orb.Bound, targetCount int) (cols int, rows int, err error) {
	if targetCount < 1 {
		return 0, 0, fmt.Errorf("target tile count must be positive, got %d", targetCount)
	}

	width := bound.Max.X() - bound.Min.X()
	height := bound.Max.Y() - bound.Min.Y()
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("degenerate region: bound %.6f,%.6f,%.6f,%.6f has no extent",
			bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y())
	}

	aspectRatio := width / height

	cols = int(math.Floor(math.Sqrt(float64(targetCount) * aspectRatio)))
	if cols < 1 {
		// Extreme aspect ratios floor to zero columns
		cols = 1
	}

	rows = int(math.Floor(float64(targetCount) / float64(cols)))
	if rows < 1 {
		rows = 1
	}

	if cols*rows < targetCount {
		cols++
	}

	return cols, rows, nil
}

// PartitionGrid splits the bound into a cols x rows grid of equal-size cells,
// emitted in row-major order starting at the bound's min corner. Adjacent
// cells share edges exactly and the last column/row is snapped to the bound's
// max corner, so the cells tile the bound with no gaps or overlaps.
func PartitionGrid(bound orb.Bound, targetCount int) ([]orb.Bound, error) {
	cols, rows, err := GridShape(bound, targetCount)
	if err != nil {
		return nil, err
	}

	width := bound.Max.X() - bound.Min.X()
	height := bound.Max.Y() - bound.Min.Y()
	cellWidth := width / float64(cols)
	cellHeight := height / float64(rows)

	xEdges := make([]float64, cols+1)
	for c := 0; c <= cols; c++ {
		xEdges[c] = bound.Min.X() + float64(c)*cellWidth
	}
	xEdges[cols] = bound.Max.X()

	yEdges := make([]float64, rows+1)
	for r := 0; r <= rows; r++ {
		yEdges[r] = bound.Min.Y() + float64(r)*cellHeight
	}
	yEdges[rows] = bound.Max.Y()

	cells := make([]orb.Bound, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells = append(cells, orb.Bound{
				Min: orb.Point{xEdges[c], yEdges[r]},
				Max: orb.Point{xEdges[c+1], yEdges[r+1]},
			})
		}
	}

	return cells, nil
}
