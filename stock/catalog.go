package stock

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS stock_clips (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	category   TEXT NOT NULL,
	path       TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(category, path)
);
CREATE INDEX IF NOT EXISTS idx_stock_clips_category ON stock_clips(category, position);
`

// Catalog is the SQLite inventory written by the stock admin surface. The
// pipeline only reads from it.
type Catalog struct {
	db   *sql.DB
	root string
}

// OpenCatalog opens (and migrates) the catalog at path.
func OpenCatalog(path string, root string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open stock catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate stock catalog: %w", err)
	}
	return &Catalog{db: db, root: root}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) ListClips(ctx context.Context, name string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT path FROM stock_clips WHERE category = ? ORDER BY position, id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock catalog: %w", err)
	}
	defer rows.Close()

	var clips []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan stock clip: %w", err)
		}
		if c.root != "" && !filepath.IsAbs(p) {
			p = filepath.Join(c.root, p)
		}
		clips = append(clips, p)
	}
	return clips, rows.Err()
}

// AddClip registers a clip. Used by tooling and tests; the pipeline never
// writes to the catalog.
func (c *Catalog) AddClip(ctx context.Context, name, path string, position int) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO stock_clips (category, path, position) VALUES (?, ?, ?)`,
		name, path, position)
	if err != nil {
		return fmt.Errorf("failed to add stock clip: %w", err)
	}
	return nil
}
