package tempfiles

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type failingCloser struct {
	closed bool
}

func (c *failingCloser) Close() error {
	c.closed = true
	return errors.New("boom")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScopeReleaseRemovesEverything(t *testing.T) {
	base := t.TempDir()
	scope, err := NewScope(testLogger(), base, "run")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}

	path, err := scope.WriteTemp("audio_*.mp3", []byte("data"))
	if err != nil {
		t.Fatalf("WriteTemp failed: %v", err)
	}
	named := scope.Path("caption.png")
	if err := os.WriteFile(named, []byte("png"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if errs := scope.Release(); len(errs) != 0 {
		t.Fatalf("expected clean release, got %v", errs)
	}
	for _, p := range []string{path, named, scope.Dir()} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", p)
		}
	}

	entries, _ := os.ReadDir(base)
	if len(entries) != 0 {
		t.Errorf("expected empty base dir, found %d entries", len(entries))
	}
}

func TestScopeReleaseIsIdempotentAndReportsCloseFailures(t *testing.T) {
	scope, err := NewScope(testLogger(), t.TempDir(), "run")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	closer := &failingCloser{}
	scope.TrackCloser(closer)

	errs := scope.Release()
	if len(errs) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(errs))
	}
	if !closer.closed {
		t.Error("expected closer to be closed")
	}
	if again := scope.Release(); again != nil {
		t.Errorf("second release should be a no-op, got %v", again)
	}
}

func TestChildScopeReleasesEarlyAndKeepsParentDir(t *testing.T) {
	scope, err := NewScope(testLogger(), t.TempDir(), "run")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	defer scope.Release()

	child := scope.Child()
	p, err := child.WriteTemp("seg_*.mp3", []byte("x"))
	if err != nil {
		t.Fatalf("WriteTemp failed: %v", err)
	}
	if errs := child.Release(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("expected child file removed")
	}
	if _, err := os.Stat(scope.Dir()); err != nil {
		t.Errorf("parent dir should survive child release: %v", err)
	}

	leftover := filepath.Join(scope.Dir(), "leftover")
	os.WriteFile(leftover, nil, 0644)
	scope.Release()
	if _, err := os.Stat(scope.Dir()); !os.IsNotExist(err) {
		t.Error("expected parent dir removed")
	}
}

func TestNewPathIsUniqueAndTracked(t *testing.T) {
	scope, err := NewScope(testLogger(), t.TempDir(), "run")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	a := scope.NewPath("bg_*.mp4")
	b := scope.NewPath("bg_*.mp4")
	if a == b {
		t.Fatalf("expected distinct paths, got %s twice", a)
	}
	if filepath.Dir(a) != scope.Dir() || filepath.Ext(a) != ".mp4" {
		t.Errorf("unexpected path %s", a)
	}
	if err := os.WriteFile(a, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	scope.Release()
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", a)
	}
}
