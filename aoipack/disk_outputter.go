package aoipack

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
)

const (
	rasterFileName  = "response.tiff"
	sidecarFileName = "tile.json"
)

type diskOutputter struct {
	root    string
	hasRoot bool
}

// NewDiskOutputter writes each tile's raster into its own directory under
// root, named by the tile identifier, next to a GeoJSON sidecar describing
// the tile's footprint.
func NewDiskOutputter(dsn string) (*diskOutputter, error) {
	root, err := filepath.Abs(dsn)
	if err != nil {
		return nil, err
	}

	return &diskOutputter{root: root}, nil
}

func (o *diskOutputter) Close() error {
	return nil
}

func (o *diskOutputter) CreateTiles() error {
	if o.hasRoot {
		return nil
	}

	info, err := os.Stat(o.root)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(o.root, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	} else if !info.IsDir() {
		return errors.New("output root is already a file")
	}

	o.hasRoot = true
	return nil
}

func (o *diskOutputter) Save(tile Tile, data []byte) error {
	if err := o.CreateTiles(); err != nil {
		return err
	}

	tileDir := filepath.Join(o.root, tile.ID())
	if err := os.MkdirAll(tileDir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(tileDir, rasterFileName), data, 0644); err != nil {
		return err
	}

	sidecar, err := tileSidecar(tile)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(tileDir, sidecarFileName), sidecar, 0644)
}

func tileSidecar(tile Tile) ([]byte, error) {
	feature := geojson.NewFeature(tile.Bound.ToPolygon())
	feature.Properties = geojson.Properties{
		"id":  tile.ID(),
		"row": tile.Row,
		"col": tile.Col,
	}

	return feature.MarshalJSON()
}
