package category

import (
	"log/slog"
	"sync/atomic"
)

// Store hands out the current table snapshot. Reloading swaps in a new
// table; runs holding an older snapshot are unaffected.
type Store struct {
	logger  *slog.Logger
	path    string
	current atomic.Pointer[Table]
}

// NewStore loads the table at path (built-in table when empty).
func NewStore(logger *slog.Logger, path string) (*Store, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	s := &Store{logger: logger, path: path}
	s.current.Store(t)
	return s, nil
}

// Snapshot returns the current table.
func (s *Store) Snapshot() *Table {
	return s.current.Load()
}

// Replace installs a new table.
func (s *Store) Replace(t *Table) {
	s.current.Store(t)
	s.logger.Info("Category table replaced", slog.Any("categories", t.Names()))
}

// Reload re-reads the backing file. On error the previous snapshot stays.
func (s *Store) Reload() error {
	t, err := LoadTable(s.path)
	if err != nil {
		s.logger.Error("Failed to reload category table",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return err
	}
	s.Replace(t)
	return nil
}
