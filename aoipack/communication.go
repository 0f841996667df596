package aoipack

import "time"

// TimeRange is the acquisition window imagery is requested for.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

type TileRequest struct {
	Tile   Tile
	URL    string
	Width  int
	Height int
	Range  TimeRange
	Bands  []string
}

type TileResponse struct {
	Tile    Tile
	Data    []byte
	Elapsed float64
}
