package tempfiles

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Scope owns the temporary files and handles created by one pipeline
// invocation. Everything registered with it is removed by Release.
type Scope struct {
	logger   *slog.Logger
	dir      string
	mutex    sync.Mutex
	paths    []string
	closers  []io.Closer
	released bool
	parent   *Scope
}

// NewScope creates a private working directory under baseDir.
func NewScope(logger *slog.Logger, baseDir string, prefix string) (*Scope, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp base directory: %w", err)
	}
	dir, err := os.MkdirTemp(baseDir, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scope directory: %w", err)
	}
	return &Scope{logger: logger, dir: dir}, nil
}

// Child returns a scope sharing the parent's directory whose files can be
// released early. Anything still tracked is also released with the parent.
func (s *Scope) Child() *Scope {
	child := &Scope{logger: s.logger, dir: s.dir, parent: s}
	s.TrackCloser(closerFunc(func() error {
		if errs := child.Release(); len(errs) > 0 {
			return errors.Join(errs...)
		}
		return nil
	}))
	return child
}

// Dir is the working directory of the scope.
func (s *Scope) Dir() string {
	return s.dir
}

// Path returns a tracked path inside the scope directory.
func (s *Scope) Path(name string) string {
	p := filepath.Join(s.dir, name)
	s.Track(p)
	return p
}

// NewPath returns a tracked, not yet created path. The last "*" in pattern
// is replaced by a random token.
func (s *Scope) NewPath(pattern string) string {
	token := uuid.NewString()[:8]
	name := pattern + token
	if i := strings.LastIndex(pattern, "*"); i >= 0 {
		name = pattern[:i] + token + pattern[i+1:]
	}
	return s.Path(name)
}

// CreateTemp creates and tracks a new file. The caller closes it.
func (s *Scope) CreateTemp(pattern string) (*os.File, error) {
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	s.Track(f.Name())
	return f, nil
}

// WriteTemp writes data to a new tracked file and returns its path.
func (s *Scope) WriteTemp(pattern string, data []byte) (string, error) {
	f, err := s.CreateTemp(pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), nil
}

// Track registers a path for removal.
func (s *Scope) Track(path string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paths = append(s.paths, path)
}

// TrackCloser registers a handle to close on release.
func (s *Scope) TrackCloser(c io.Closer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closers = append(s.closers, c)
}

// Release closes handles in reverse order, deletes tracked files and, for a
// root scope, the scope directory. It is safe to call more than once; only
// the first call does any work. Failures are logged and returned, never
// fatal.
func (s *Scope) Release() []error {
	s.mutex.Lock()
	if s.released {
		s.mutex.Unlock()
		return nil
	}
	s.released = true
	closers := s.closers
	paths := s.paths
	s.closers, s.paths = nil, nil
	s.mutex.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close handle: %w", err))
		}
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	if s.parent == nil {
		if err := os.RemoveAll(s.dir); err != nil {
			errs = append(errs, fmt.Errorf("remove scope directory %s: %w", s.dir, err))
		}
	}

	for _, err := range errs {
		s.logger.Error("Failed to release temporary resource",
			slog.String("scope", s.dir),
			slog.String("error", err.Error()))
	}
	return errs
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
