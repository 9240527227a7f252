package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"

	"github.com/serisow/narrador/category"
	"github.com/serisow/narrador/media"
	"github.com/serisow/narrador/narration_type"
	"github.com/serisow/narrador/stock"
	"github.com/serisow/narrador/tempfiles"
)

// ErrUnavailable is wrapped when no tier, procedural included, produced a clip.
var ErrUnavailable = errors.New("background unavailable")

// PickMode chooses among usable stock clips.
type PickMode string

const (
	PickFirst  PickMode = "first"
	PickRandom PickMode = "random"
)

// Source is what a segment asks the resolver for.
type Source struct {
	// Explicit is a user supplied clip used for every segment.
	Explicit string
	UseStock bool
	Category string
	// Library overrides the resolver's stock library for this request,
	// typically with one built from a category table snapshot.
	Library stock.Library
}

// Resolution is a background fitted to a segment.
type Resolution struct {
	Clip     media.Clip
	Mode     narration_type.BackgroundMode
	Category string
	// Origin is the file the clip was cut from; empty for procedural clips.
	Origin string
}

type Resolver struct {
	logger     *slog.Logger
	executor   media.FFmpegExecutor
	library    stock.Library
	procedural media.ProceduralSpec
	pick       PickMode

	mu  sync.Mutex
	rng *rand.Rand
}

func NewResolver(logger *slog.Logger, executor media.FFmpegExecutor, library stock.Library, procedural media.ProceduralSpec, pick PickMode, seed int64) *Resolver {
	if pick == "" {
		pick = PickFirst
	}
	if procedural.FrameRate <= 0 {
		procedural.FrameRate = 24
	}
	if procedural.Width <= 0 || procedural.Height <= 0 {
		procedural.Width, procedural.Height = 640, 360
	}
	return &Resolver{
		logger:     logger,
		executor:   executor,
		library:    library,
		procedural: procedural,
		pick:       pick,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Resolve returns a clip of exactly target seconds. Files the clip is
// written to are owned by scope.
func (r *Resolver) Resolve(ctx context.Context, scope *tempfiles.Scope, src Source, target float64) (Resolution, error) {
	if target <= 0 {
		return Resolution{}, fmt.Errorf("invalid target duration %.3f", target)
	}

	if src.Explicit != "" {
		res, err := r.fromFile(ctx, scope, src.Explicit, target)
		if err == nil {
			res.Mode = narration_type.BackgroundExplicit
			return res, nil
		}
		r.logger.Warn("Explicit background unusable, falling back",
			slog.String("path", src.Explicit),
			slog.String("error", err.Error()))
	}

	library := r.library
	if src.Library != nil {
		library = src.Library
	}
	if src.UseStock && library != nil {
		tiers := []string{src.Category}
		if src.Category != category.DefaultCategory {
			tiers = append(tiers, category.DefaultCategory)
		}
		for _, name := range tiers {
			if name == "" {
				continue
			}
			res, ok := r.fromStock(ctx, scope, library, name, target)
			if ok {
				return res, nil
			}
		}
	}

	clip, err := r.generate(ctx, scope, target)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Resolution{Clip: clip, Mode: narration_type.BackgroundProcedural}, nil
}

func (r *Resolver) fromStock(ctx context.Context, scope *tempfiles.Scope, library stock.Library, name string, target float64) (Resolution, bool) {
	clips, err := library.ListClips(ctx, name)
	if err != nil {
		r.logger.Warn("Failed to list stock clips",
			slog.String("category", name),
			slog.String("error", err.Error()))
		return Resolution{}, false
	}

	for _, path := range r.order(clips) {
		res, err := r.fromFile(ctx, scope, path, target)
		if err != nil {
			r.logger.Warn("Skipping stock clip",
				slog.String("category", name),
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		res.Mode = narration_type.BackgroundStock
		res.Category = name
		return res, true
	}
	return Resolution{}, false
}

// order returns the candidates in the order they should be tried.
func (r *Resolver) order(clips []string) []string {
	if r.pick != PickRandom || len(clips) < 2 {
		return clips
	}
	out := make([]string, len(clips))
	copy(out, clips)
	r.mu.Lock()
	r.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	r.mu.Unlock()
	return out
}

func (r *Resolver) fromFile(ctx context.Context, scope *tempfiles.Scope, path string, target float64) (Resolution, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Resolution{}, err
	}
	if info.IsDir() {
		return Resolution{}, fmt.Errorf("%s is a directory", path)
	}

	natural, err := r.executor.GetDuration(ctx, path)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to probe clip: %w", err)
	}

	out := scope.NewPath("bg_*.mp4")
	clip, err := r.executor.FitClip(ctx, media.Clip{Path: path, Duration: natural}, target, out)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Clip: clip, Origin: path}, nil
}

func (r *Resolver) generate(ctx context.Context, scope *tempfiles.Scope, target float64) (media.Clip, error) {
	out := scope.NewPath("procedural_*.mp4")
	r.logger.Info("Generating procedural background",
		slog.Float64("duration", target),
		slog.Int("width", r.procedural.Width),
		slog.Int("height", r.procedural.Height))
	return r.executor.GenerateProcedural(ctx, r.procedural, target, out)
}
