package aoipack

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"

	_ "github.com/mattn/go-sqlite3" // Register sqlite3 database driver
)

const (
	// Rasters are orders of magnitude larger than vector tiles, so commit
	// in smaller batches than an mbtiles writer would.
	sceneBatchSize = 50
)

// NewScenePackOutputter stores fetched rasters in a single SQLite file,
// keyed by tile identifier with the tile bounds alongside.
func NewScenePackOutputter(dsn string) (*scenePackOutputter, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	return &scenePackOutputter{db: db}, nil
}

type scenePackOutputter struct {
	db         *sql.DB
	txn        *sql.Tx
	batchCount int
	hasTables  bool
}

func (o *scenePackOutputter) Close() error {
	var err error

	if o.txn != nil {
		err = o.txn.Commit()
	}

	if o.db != nil {
		if err2 := o.db.Close(); err2 != nil {
			err = err2
		}
	}

	return err
}

func (o *scenePackOutputter) CreateTiles() error {
	if o.hasTables {
		return nil
	}
	if _, err := o.db.Exec(`
		BEGIN TRANSACTION;
		CREATE TABLE IF NOT EXISTS tiles (
			tile_id TEXT NOT NULL,
			min_lon REAL NOT NULL,
			min_lat REAL NOT NULL,
			max_lon REAL NOT NULL,
			max_lat REAL NOT NULL,
			scene_id TEXT NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS tiles_index ON tiles (tile_id);
		CREATE TABLE IF NOT EXISTS rasters (
			raster_data BLOB NOT NULL,
			scene_id TEXT NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS rasters_id ON rasters (scene_id);
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT,
			value TEXT
		);
		CREATE UNIQUE INDEX IF NOT EXISTS name ON metadata (name);
		CREATE VIEW IF NOT EXISTS scenes AS
		SELECT
			tiles.tile_id AS tile_id,
			tiles.min_lon AS min_lon,
			tiles.min_lat AS min_lat,
			tiles.max_lon AS max_lon,
			tiles.max_lat AS max_lat,
			rasters.raster_data AS raster_data
		FROM tiles
		JOIN rasters ON rasters.scene_id = tiles.scene_id;
		COMMIT;
		PRAGMA synchronous=OFF;
	`); err != nil {
		return err
	}
	o.hasTables = true
	return nil
}

// SetMetadata writes name/value pairs into the pack's metadata table,
// replacing existing values.
func (o *scenePackOutputter) SetMetadata(metadata map[string]string) error {
	if err := o.CreateTiles(); err != nil {
		return err
	}

	for name, value := range metadata {
		if _, err := o.db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?);", name, value); err != nil {
			return err
		}
	}

	return nil
}

func (o *scenePackOutputter) Save(tile Tile, data []byte) error {
	if err := o.CreateTiles(); err != nil {
		return err
	}

	if o.txn == nil {
		tx, err := o.db.Begin()
		if err != nil {
			return err
		}
		o.txn = tx
	}

	hash := md5.Sum(data)
	sceneID := hex.EncodeToString(hash[:])

	_, err := o.txn.Exec("INSERT OR REPLACE INTO rasters (scene_id, raster_data) VALUES (?, ?);", sceneID, data)
	if err != nil {
		return err
	}

	_, err = o.txn.Exec(
		"INSERT OR REPLACE INTO tiles (tile_id, min_lon, min_lat, max_lon, max_lat, scene_id) VALUES (?, ?, ?, ?, ?, ?);",
		tile.ID(), tile.Bound.Min.X(), tile.Bound.Min.Y(), tile.Bound.Max.X(), tile.Bound.Max.Y(), sceneID)
	if err != nil {
		return err
	}

	o.batchCount++

	if o.batchCount%sceneBatchSize == 0 {
		if err := o.txn.Commit(); err != nil {
			return err
		}
		o.txn = nil
	}

	return nil
}
