package http

import (
	"fmt"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/aoipack/go-aoipack/aoipack"
)

type fakeReader struct {
	scenes map[string][]byte
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) GetScene(tileID string) (*aoipack.SceneData, error) {
	bound, err := aoipack.ParseTileID(tileID)
	if err != nil {
		return nil, err
	}

	data, ok := f.scenes[tileID]
	if !ok {
		return &aoipack.SceneData{Tile: aoipack.Tile{Bound: bound}}, nil
	}

	return &aoipack.SceneData{Tile: aoipack.Tile{Bound: bound}, Data: &data}, nil
}

func (f *fakeReader) VisitAllScenes(visitor func(aoipack.Tile, []byte)) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeReader) Metadata() (*aoipack.PackMetadata, error) {
	return aoipack.NewPackMetadata(map[string]string{}), nil
}

func TestRasterHandler(t *testing.T) {
	raster := []byte("raster-bytes")
	handler := RasterHandler(&fakeReader{
		scenes: map[string][]byte{"0_0_5_5": raster},
	})

	t.Run("known tile", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/rasters/0_0_5_5", nil))

		if rec.Code != gohttp.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Body.String(); got != string(raster) {
			t.Errorf("body = %q, want %q", got, raster)
		}
	})

	t.Run("unknown tile", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/rasters/5_0_10_5", nil))

		if rec.Code != gohttp.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed tile id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/rasters/1_2_3", nil))

		if rec.Code != gohttp.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("unrelated path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/metrics", nil))

		if rec.Code != gohttp.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
