package http

import (
	"fmt"
	"log"
	gohttp "net/http"
	"regexp"

	"github.com/aoipack/go-aoipack/aoipack"
)

var (
	rasterRegex = regexp.MustCompile(`/rasters/([0-9eE+,_-]+)$`)
)

// RasterHandler serves stored rasters out of a scene pack by tile
// identifier, e.g. GET /rasters/0_0_5_5.
func RasterHandler(reader aoipack.ScenePackReader) gohttp.HandlerFunc {

	return func(w gohttp.ResponseWriter, r *gohttp.Request) {
		tileID, err := parseTileIDFromPath(r.URL.Path)
		if err != nil {
			gohttp.NotFound(w, r)
			return
		}

		result, err := reader.GetScene(tileID)
		if err != nil {
			log.Printf("Error getting scene: %+v", err)
			gohttp.NotFound(w, r)
			return
		}

		if result.Data == nil {
			gohttp.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", gohttp.DetectContentType(*result.Data))
		w.Write(*result.Data)
	}
}

func parseTileIDFromPath(url string) (string, error) {
	match := rasterRegex.FindStringSubmatch(url)
	if match == nil {
		return "", fmt.Errorf("invalid raster path")
	}

	// Reject ids that don't decode to a bound before touching the database
	if _, err := aoipack.ParseTileID(match[1]); err != nil {
		return "", err
	}

	return match[1], nil
}
