package aoipack

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // Register sqlite3 database driver
)

// SceneData is one stored raster along with the tile it covers. Data is nil
// when the pack holds no scene for the requested tile.
type SceneData struct {
	Tile Tile
	Data *[]byte
}

type ScenePackReader interface {
	Close() error
	GetScene(tileID string) (*SceneData, error)
	VisitAllScenes(visitor func(Tile, []byte)) error
	Metadata() (*PackMetadata, error)
}

func NewScenePackReader(dsn string) (ScenePackReader, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return NewScenePackReaderWithDatabase(db)
}

func NewScenePackReaderWithDatabase(db *sql.DB) (ScenePackReader, error) {
	return &scenePackReader{db: db}, nil
}

type scenePackReader struct {
	db *sql.DB
}

// Close gracefully tears down the pack connection.
func (o *scenePackReader) Close() error {
	var err error

	if o.db != nil {
		if err2 := o.db.Close(); err2 != nil {
			err = err2
		}
	}

	return err
}

// GetScene returns the stored raster for the given tile identifier.
func (o *scenePackReader) GetScene(tileID string) (*SceneData, error) {
	bound, err := ParseTileID(tileID)
	if err != nil {
		return nil, err
	}

	var data []byte
	result := o.db.QueryRow("SELECT raster_data FROM scenes WHERE tile_id=? LIMIT 1", tileID)
	if err := result.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return &SceneData{Tile: Tile{Bound: bound}, Data: nil}, nil
		}
		return nil, err
	}

	return &SceneData{
		Tile: Tile{Bound: bound},
		Data: &data,
	}, nil
}

// VisitAllScenes runs the given function on every scene in the pack.
func (o *scenePackReader) VisitAllScenes(visitor func(Tile, []byte)) error {
	rows, err := o.db.Query("SELECT tile_id, raster_data FROM scenes")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tileID string
		var data []byte
		if err := rows.Scan(&tileID, &data); err != nil {
			return err
		}

		bound, err := ParseTileID(tileID)
		if err != nil {
			return err
		}

		visitor(Tile{Bound: bound}, data)
	}

	return rows.Err()
}

// Metadata reads the pack's metadata table.
func (o *scenePackReader) Metadata() (*PackMetadata, error) {
	rows, err := o.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewPackMetadata(metadata), nil
}
