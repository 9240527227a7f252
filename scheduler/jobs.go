package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/serisow/narrador/category"
)

var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".webm": true}

// VideoCleanupJob removes rendered videos older than retentionDays.
func VideoCleanupJob(logger *slog.Logger, videoDir string, retentionDays int, schedule string) Job {
	return Job{
		Name:     "video_cleanup",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			removed, err := RemoveOlderThan(logger, videoDir, cutoff, func(path string, info os.FileInfo) bool {
				return !info.IsDir() && videoExtensions[strings.ToLower(filepath.Ext(path))]
			})
			if removed > 0 {
				logger.Info("Removed old videos", slog.Int("count", removed), slog.Int("retention_days", retentionDays))
			}
			return err
		},
	}
}

// StaleScopeJob removes run working directories left behind by a crashed
// process. Live runs touch their directory constantly, so only directories
// untouched for maxAge are removed.
func StaleScopeJob(logger *slog.Logger, tempDir string, maxAge time.Duration, schedule string) Job {
	return Job{
		Name:     "stale_scope_cleanup",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			entries, err := os.ReadDir(tempDir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			cutoff := time.Now().Add(-maxAge)
			for _, e := range entries {
				if !e.IsDir() || !strings.HasPrefix(e.Name(), "narration-") {
					continue
				}
				info, err := e.Info()
				if err != nil || !info.ModTime().Before(cutoff) {
					continue
				}
				path := filepath.Join(tempDir, e.Name())
				if err := os.RemoveAll(path); err != nil {
					logger.Error("Failed to remove stale scope", slog.String("path", path), slog.String("error", err.Error()))
					continue
				}
				logger.Info("Removed stale scope", slog.String("path", path))
			}
			return nil
		},
	}
}

// CategoryReloadJob swaps in a freshly loaded category table.
func CategoryReloadJob(store *category.Store, schedule string) Job {
	return Job{
		Name:     "category_reload",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			return store.Reload()
		},
	}
}

// HistoryPruner deletes persisted runs.
type HistoryPruner interface {
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunHistoryJob prunes persisted runs older than retentionDays.
func RunHistoryJob(logger *slog.Logger, pruner HistoryPruner, retentionDays int, schedule string) Job {
	return Job{
		Name:     "run_history_cleanup",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := pruner.DeleteCompletedBefore(ctx, time.Now().AddDate(0, 0, -retentionDays))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("Pruned run history", slog.Int64("count", n))
			}
			return nil
		},
	}
}

// RemoveOlderThan deletes files under root modified before cutoff for which
// match returns true.
func RemoveOlderThan(logger *slog.Logger, root string, cutoff time.Time, match func(string, os.FileInfo) bool) (int, error) {
	removed := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !match(path, info) || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			logger.Error("Failed to remove file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		removed++
		return nil
	})
	return removed, err
}
