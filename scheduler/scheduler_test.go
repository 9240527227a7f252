package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/serisow/narrador/category"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
}

func TestVideoCleanupJob(t *testing.T) {
	dir := t.TempDir()
	oldVideo := filepath.Join(dir, "2026-01", "old.mp4")
	newVideo := filepath.Join(dir, "fresh.mp4")
	oldNotes := filepath.Join(dir, "notes.txt")
	writeAged(t, oldVideo, 10*24*time.Hour)
	writeAged(t, newVideo, time.Hour)
	writeAged(t, oldNotes, 10*24*time.Hour)

	job := VideoCleanupJob(testLogger(), dir, 7, "@daily")
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	if _, err := os.Stat(oldVideo); !os.IsNotExist(err) {
		t.Error("old video should be removed")
	}
	for _, keep := range []string{newVideo, oldNotes} {
		if _, err := os.Stat(keep); err != nil {
			t.Errorf("%s should be kept: %v", keep, err)
		}
	}
}

func TestVideoCleanupMissingDirectory(t *testing.T) {
	job := VideoCleanupJob(testLogger(), filepath.Join(t.TempDir(), "missing"), 7, "@daily")
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("missing directory should not fail: %v", err)
	}
}

func TestStaleScopeJob(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "narration-111")
	live := filepath.Join(dir, "narration-222")
	other := filepath.Join(dir, "unrelated-333")
	for _, d := range []string{stale, live, other} {
		if err := os.Mkdir(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	os.Chtimes(stale, old, old)
	os.Chtimes(other, old, old)

	if err := StaleScopeJob(testLogger(), dir, 24*time.Hour, "@hourly").Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale scope should be removed")
	}
	if _, err := os.Stat(live); err != nil {
		t.Error("live scope must be kept")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("unrelated directory must be kept")
	}
}

func TestCategoryReloadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	os.WriteFile(path, []byte("categories:\n  - name: mar\n    keywords: [ola]\n"), 0644)
	store, err := category.NewStore(testLogger(), path)
	if err != nil {
		t.Fatal(err)
	}
	before := store.Snapshot()

	os.WriteFile(path, []byte("categories:\n  - name: mar\n    keywords: [ola]\n  - name: cielo\n    keywords: [nube]\n"), 0644)
	if err := CategoryReloadJob(store, "@every 1m").Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !store.Snapshot().Has("cielo") || before.Has("cielo") {
		t.Error("reload should install a new snapshot and leave the old one untouched")
	}
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestRunHistoryJob(t *testing.T) {
	pruner := &fakePruner{}
	if err := RunHistoryJob(testLogger(), pruner, 30, "@daily").Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(pruner.cutoff); d < 29*24*time.Hour || d > 31*24*time.Hour {
		t.Errorf("unexpected cutoff %v", pruner.cutoff)
	}
	pruner.err = errors.New("db down")
	if err := RunHistoryJob(testLogger(), pruner, 30, "@daily").Run(context.Background()); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestSchedulerAdd(t *testing.T) {
	s := New(testLogger())
	if err := s.Add(Job{Name: "bad", Schedule: "every tuesday", Run: func(context.Context) error { return nil }}); err == nil {
		t.Error("expected invalid schedule error")
	}
	if err := s.Add(Job{Name: "disabled", Run: func(context.Context) error { return nil }}); err != nil {
		t.Errorf("empty schedule should disable the job: %v", err)
	}

	ran := make(chan struct{}, 1)
	if err := s.Add(Job{Name: "tick", Schedule: "@every 1s", Run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
