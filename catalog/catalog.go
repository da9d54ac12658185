/*
Package catalog uses SQLite to keep an index of the assets extracted from
GameMaker executables, so a collection of builds can be searched without
re-running the decryption and decoding every time.
*/
package catalog

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/kailith/gmextract/gm8"

	// Database driver
	_ "github.com/mattn/go-sqlite3"
)

// Asset kinds as stored in the index
const (
	KindSound  = "sound"
	KindSprite = "sprite"
)

// Catalog holds the SQLite database handle and the image encoding function
// used for sprite thumbnails
type Catalog struct {
	db     *sql.DB
	encode func(io.Writer, image.Image) error
}

// Entry is one indexed asset
type Entry struct {
	Slot   int
	Kind   string
	Name   string
	Detail string
	Size   int64
	SHA1   string
}

// New opens an existing catalog or returns a new empty one. An image
// encoding function should be provided to encode sprite thumbnails.
func New(file string, encode func(io.Writer, image.Image) error) (*Catalog, error) {
	if file == "" {
		return nil, errors.New("no file")
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS source (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (id INTEGER PRIMARY KEY NOT NULL, source_id INTEGER NOT NULL, slot INTEGER NOT NULL, kind TEXT NOT NULL, name TEXT NOT NULL, detail TEXT, size INTEGER NOT NULL, sha1 TEXT NOT NULL, thumb BLOB, FOREIGN KEY(source_id) REFERENCES source(id))"); err != nil {
		return nil, err
	}

	return &Catalog{
		db:     db,
		encode: encode,
	}, nil
}

// Close closes the catalog rendering it unusable
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Index replaces the catalog rows for the executable at path with the
// assets decoded from it. Empty slots are not indexed; slot numbers keep
// the positional identity script references rely on.
func (c *Catalog) Index(path string, exe []byte, g *gm8.Game) error {
	id, err := c.addSource(path, fmt.Sprintf("%X", sha1.Sum(exe)))
	if err != nil {
		return err
	}

	if _, err := c.db.Exec("DELETE FROM asset WHERE source_id = ?", id); err != nil {
		return err
	}

	for slot, s := range g.Sounds {
		if s == nil {
			continue
		}
		if err := c.addAsset(id, slot, KindSound, s.Name, s.FileName, int64(len(s.Data)), s.Data, nil); err != nil {
			return err
		}
	}

	for slot, s := range g.Sprites {
		if s == nil {
			continue
		}

		var size int64
		for _, f := range s.Frames {
			size += int64(len(f))
		}

		thumb, err := c.thumbnail(s)
		if err != nil {
			return err
		}

		detail := fmt.Sprintf("%dx%d, %d frames", s.Width, s.Height, s.FrameCount)
		var pixels []byte
		if len(s.Frames) > 0 {
			pixels = s.Frames[0]
		}
		if err := c.addAsset(id, slot, KindSprite, s.Name, detail, size, pixels, thumb); err != nil {
			return err
		}
	}

	return nil
}

// Assets returns the indexed assets for the executable at path, in slot order
func (c *Catalog) Assets(path string) ([]Entry, error) {
	rows, err := c.db.Query("SELECT a.slot, a.kind, a.name, a.detail, a.size, a.sha1 FROM asset AS a JOIN source AS s ON a.source_id = s.id WHERE s.path = ? ORDER BY a.kind, a.slot", path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		if err := rows.Scan(&e.Slot, &e.Kind, &e.Name, &detail, &e.Size, &e.SHA1); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Thumbnail returns the encoded first-frame thumbnail for a sprite slot, or
// nil when none was stored
func (c *Catalog) Thumbnail(path string, slot int) ([]byte, error) {
	var thumb []byte
	switch err := c.db.QueryRow("SELECT a.thumb FROM asset AS a JOIN source AS s ON a.source_id = s.id WHERE s.path = ? AND a.kind = ? AND a.slot = ?", path, KindSprite, slot).Scan(&thumb); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return thumb, nil
	default:
		return nil, err
	}
}

func (c *Catalog) addSource(path, sha string) (int64, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM source WHERE path = ?", path).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := c.db.Exec("INSERT INTO source (path, sha1) VALUES (?, ?)", path, sha)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		if _, err := c.db.Exec("UPDATE source SET sha1 = ? WHERE id = ?", sha, id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

func (c *Catalog) addAsset(source int64, slot int, kind, name, detail string, size int64, payload, thumb []byte) error {
	sha := fmt.Sprintf("%X", sha1.Sum(payload))
	_, err := c.db.Exec("INSERT INTO asset (source_id, slot, kind, name, detail, size, sha1, thumb) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", source, slot, kind, name, detail, size, sha, thumb)
	return err
}

func (c *Catalog) thumbnail(s *gm8.Sprite) ([]byte, error) {
	if c.encode == nil || len(s.Frames) == 0 {
		return nil, nil
	}

	m := &image.RGBA{
		Pix:    s.Frames[0],
		Stride: int(s.Width) * 4,
		Rect:   image.Rect(0, 0, int(s.Width), int(s.Height)),
	}

	b := new(bytes.Buffer)
	if err := c.encode(b, m); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
