package stock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/serisow/narrador/category"
)

// Library lists candidate clip files for a category. Listed files may
// disappear before use; callers check existence themselves.
type Library interface {
	ListClips(ctx context.Context, category string) ([]string, error)
}

// TableLibrary serves clip references straight from a category table
// snapshot. Relative references resolve against Root.
type TableLibrary struct {
	Table *category.Table
	Root  string
}

func (l *TableLibrary) ListClips(ctx context.Context, name string) ([]string, error) {
	clips := l.Table.Clips(name)
	for i, c := range clips {
		if l.Root != "" && !filepath.IsAbs(c) {
			clips[i] = filepath.Join(l.Root, c)
		}
	}
	return clips, nil
}

var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true}

// DirLibrary maps each category to a sub-directory of Root.
type DirLibrary struct {
	Root string
}

func (l *DirLibrary) ListClips(ctx context.Context, name string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list stock directory: %w", err)
	}
	var clips []string
	for _, e := range entries {
		if e.IsDir() || !videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		clips = append(clips, filepath.Join(l.Root, name, e.Name()))
	}
	sort.Strings(clips)
	return clips, nil
}

// Chain concatenates the listings of several libraries, dropping duplicates.
type Chain []Library

func (c Chain) ListClips(ctx context.Context, name string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, lib := range c {
		clips, err := lib.ListClips(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, clip := range clips {
			if !seen[clip] {
				seen[clip] = true
				out = append(out, clip)
			}
		}
	}
	return out, nil
}
