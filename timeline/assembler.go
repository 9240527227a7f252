package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/serisow/narrador/background"
	"github.com/serisow/narrador/category"
	"github.com/serisow/narrador/media"
	"github.com/serisow/narrador/narration_type"
	"github.com/serisow/narrador/segment"
	"github.com/serisow/narrador/speech"
	"github.com/serisow/narrador/stock"
	"github.com/serisow/narrador/tempfiles"
)

// SuccessMessage is returned with every successful run.
const SuccessMessage = "video generated successfully"

// DefaultPacing keeps consecutive synthesis calls under provider rate limits.
const DefaultPacing = 200 * time.Millisecond

type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, scope *tempfiles.Scope, text string, voice speech.Voice) (speech.Audio, error)
}

type BackgroundResolver interface {
	Resolve(ctx context.Context, scope *tempfiles.Scope, src background.Source, target float64) (background.Resolution, error)
}

type CaptionRenderer interface {
	CaptionFile(scope *tempfiles.Scope, text string) (string, error)
	SubscribeFile(ctx context.Context, scope *tempfiles.Scope) (string, error)
}

// Composer encodes a single entry and re-fits clips.
type Composer interface {
	ComposeEntry(ctx context.Context, spec media.ComposeSpec) error
	FitClip(ctx context.Context, clip media.Clip, target float64, outputPath string) (media.Clip, error)
}

type Renderer interface {
	Render(ctx context.Context, entries []narration_type.TimelineEntry, outputPath string, opts narration_type.RenderOptions) error
}

// Observer is told about every state change of a run.
type Observer = func(state narration_type.State, detail string)

type Config struct {
	Frame   media.FrameSize
	Options narration_type.RenderOptions
	Pacing  time.Duration
	TempDir string
	CharCap int
	// StockRoot resolves relative clip references of the category table.
	StockRoot string
	// Stock is consulted after the table's own clip references.
	Stock stock.Library
}

// Assembler runs the narration pipeline. One Assembler serves any number
// of concurrent runs; all per-run state lives in Run.
type Assembler struct {
	logger     *slog.Logger
	synth      Synthesizer
	classifier *category.Classifier
	resolver   BackgroundResolver
	captions   CaptionRenderer
	composer   Composer
	renderer   Renderer
	config     Config
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewAssembler(logger *slog.Logger, synth Synthesizer, classifier *category.Classifier, resolver BackgroundResolver,
	captions CaptionRenderer, composer Composer, renderer Renderer, config Config) *Assembler {
	if config.Options.FrameRate == 0 {
		config.Options.FrameRate = 24
	}
	if config.Options.VideoCodec == "" {
		config.Options.VideoCodec = "libx264"
	}
	if config.Options.AudioCodec == "" {
		config.Options.AudioCodec = "aac"
	}
	if config.Frame.Width == 0 {
		config.Frame = media.GetResolution("medium")
	}
	return &Assembler{
		logger:     logger,
		synth:      synth,
		classifier: classifier,
		resolver:   resolver,
		captions:   captions,
		composer:   composer,
		renderer:   renderer,
		config:     config,
		sleep:      sleepContext,
	}
}

// run is the state of one invocation.
type run struct {
	req      narration_type.Request
	table    *category.Table
	observe  Observer
	state    narration_type.State
	scope    *tempfiles.Scope
	segments []narration_type.Segment
	entries  []narration_type.TimelineEntry
	clock    float64
	// last is the most recent segment background, kept for the closing entry.
	last      *background.Resolution
	lastScope *tempfiles.Scope
}

func (r *run) transition(logger *slog.Logger, state narration_type.State, detail string) {
	r.state = state
	logger.Info("Narration state changed",
		slog.String("state", string(state)),
		slog.String("detail", detail))
	if r.observe != nil {
		r.observe(state, detail)
	}
}

// Run executes one narration request against a category table snapshot and
// always returns a result; every temporary resource is released first.
func (a *Assembler) Run(ctx context.Context, req narration_type.Request, table *category.Table, observe Observer) narration_type.Result {
	start := time.Now()
	r := &run{req: req, table: table, observe: observe, state: narration_type.StateIdle}

	err := a.execute(ctx, r)

	var diagnostics []string
	if r.scope != nil {
		for _, cerr := range r.scope.Release() {
			diagnostics = append(diagnostics, (&narration_type.StageError{
				Stage: r.state,
				Kind:  narration_type.KindResourceCleanupFailure,
				Err:   cerr,
			}).Error())
		}
	}

	result := narration_type.Result{
		Segments:    r.segments,
		Entries:     r.entries,
		Diagnostics: diagnostics,
		Elapsed:     time.Since(start),
	}
	if err != nil {
		r.transition(a.logger, narration_type.StateFailed, err.Error())
		result.Message = err.Error()
		return result
	}

	r.transition(a.logger, narration_type.StateSucceeded, req.OutputPath)
	result.Success = true
	result.Message = SuccessMessage
	result.OutputPath = req.OutputPath
	return result
}

func (a *Assembler) execute(ctx context.Context, r *run) error {
	req := r.req
	if strings.TrimSpace(req.Text) == "" {
		return invalid(errors.New("narration text is empty"))
	}
	if req.OutputPath == "" {
		return invalid(errors.New("output path is required"))
	}
	if r.table == nil {
		return invalid(errors.New("category table is required"))
	}
	voice, err := speech.LookupVoice(req.Voice)
	if err != nil {
		return invalid(err)
	}

	scope, err := tempfiles.NewScope(a.logger, a.config.TempDir, "narration")
	if err != nil {
		return &narration_type.StageError{Stage: narration_type.StateIdle, Kind: narration_type.KindResourceCleanupFailure, Err: err}
	}
	r.scope = scope

	r.transition(a.logger, narration_type.StateSplitting, "")
	splitter := &segment.Splitter{Grouped: req.Grouped, CharCap: a.config.CharCap}
	r.segments = splitter.Segments(req.Text)
	if len(r.segments) == 0 {
		return invalid(errors.New("narration text has no segments"))
	}

	r.transition(a.logger, narration_type.StatePerSegmentLoop, fmt.Sprintf("%d segments", len(r.segments)))
	library := stock.Chain{&stock.TableLibrary{Table: r.table, Root: a.config.StockRoot}}
	if a.config.Stock != nil {
		library = append(library, a.config.Stock)
	}
	for i := range r.segments {
		if err := a.processSegment(ctx, r, i, voice, library); err != nil {
			return err
		}
		if i < len(r.segments)-1 && a.config.Pacing > 0 {
			if err := a.sleep(ctx, a.config.Pacing); err != nil {
				return &narration_type.StageError{Stage: r.state, Kind: narration_type.KindCancelled, Segment: r.segments[i].Index, Err: err}
			}
		}
	}

	r.transition(a.logger, narration_type.StateFinalizing, fmt.Sprintf("%.3fs narrated", r.clock))
	if err := a.appendPromotional(ctx, r); err != nil {
		return err
	}
	return a.render(ctx, r)
}

func (a *Assembler) processSegment(ctx context.Context, r *run, i int, voice speech.Voice, library stock.Library) error {
	seg := &r.segments[i]
	segScope := r.scope.Child()
	defer segScope.Release()

	fail := func(kind narration_type.ErrorKind, err error) error {
		return &narration_type.StageError{Stage: narration_type.StatePerSegmentLoop, Kind: kind, Segment: seg.Index, Err: err}
	}

	audio, err := a.synth.SynthesizeToFile(ctx, segScope, seg.Text, voice)
	if err != nil {
		return fail(synthesisKind(err), err)
	}

	if r.req.UseStock {
		seg.Category = a.classifier.Classify(r.table, seg.Text)
	}

	bgScope := r.scope.Child()
	bg, err := a.resolver.Resolve(ctx, bgScope, background.Source{
		Explicit: r.req.BackgroundPath,
		UseStock: r.req.UseStock,
		Category: seg.Category,
		Library:  library,
	}, audio.Duration)
	if err != nil {
		bgScope.Release()
		return fail(narration_type.KindBackgroundUnavailable, err)
	}
	// Only the newest background is needed after this point.
	if r.lastScope != nil {
		r.lastScope.Release()
	}
	r.last, r.lastScope = &bg, bgScope

	captionPath, err := a.captions.CaptionFile(segScope, seg.Text)
	if err != nil {
		return fail(narration_type.KindCaptionFailure, err)
	}

	composed := r.scope.NewPath(fmt.Sprintf("entry_%03d_*.mp4", seg.Index))
	err = a.composer.ComposeEntry(ctx, media.ComposeSpec{
		Background: bg.Clip,
		Caption:    captionPath,
		Audio:      audio.Path,
		Duration:   audio.Duration,
		Frame:      a.config.Frame,
		Options:    a.config.Options,
		OutputPath: composed,
	})
	if err != nil {
		return fail(narration_type.KindCompositionFailure, err)
	}

	seg.StartOffset = r.clock
	seg.AudioDuration = audio.Duration
	r.entries = append(r.entries, narration_type.TimelineEntry{
		Index:       seg.Index,
		Text:        seg.Text,
		Caption:     captionPath,
		Background:  bg.Clip,
		Audio:       audio.Path,
		StartOffset: r.clock,
		Duration:    audio.Duration,
		Composed:    composed,
	})
	r.clock += audio.Duration

	a.logger.Info("Segment composed",
		slog.Int("segment", seg.Index),
		slog.Float64("start_offset", seg.StartOffset),
		slog.Float64("duration", seg.AudioDuration),
		slog.String("background", string(bg.Mode)),
		slog.String("category", seg.Category))
	return nil
}

// appendPromotional adds the closing call to action over the last background,
// or over a still frame when there is none.
func (a *Assembler) appendPromotional(ctx context.Context, r *run) error {
	fail := func(kind narration_type.ErrorKind, err error) error {
		return &narration_type.StageError{Stage: narration_type.StateFinalizing, Kind: kind, Err: err}
	}

	card, err := a.captions.SubscribeFile(ctx, r.scope)
	if err != nil {
		return fail(narration_type.KindCaptionFailure, err)
	}

	var bg media.Clip
	if r.last != nil {
		fitted, err := a.composer.FitClip(ctx, r.last.Clip, narration_type.PromotionalDuration, r.scope.NewPath("promo_bg_*.mp4"))
		if err != nil {
			a.logger.Warn("Could not reuse last background for the closing entry",
				slog.String("error", err.Error()))
		} else {
			bg = fitted
		}
	}

	composed := r.scope.NewPath("entry_promo_*.mp4")
	err = a.composer.ComposeEntry(ctx, media.ComposeSpec{
		Background: bg,
		Caption:    card,
		FullFrame:  true,
		Duration:   narration_type.PromotionalDuration,
		Frame:      a.config.Frame,
		Options:    a.config.Options,
		OutputPath: composed,
	})
	if err != nil {
		return fail(narration_type.KindCompositionFailure, err)
	}

	r.entries = append(r.entries, narration_type.TimelineEntry{
		Index:       len(r.segments) + 1,
		Caption:     card,
		Background:  bg,
		StartOffset: r.clock,
		Duration:    narration_type.PromotionalDuration,
		Promotional: true,
		Composed:    composed,
	})
	r.clock += narration_type.PromotionalDuration
	return nil
}

// render writes to a hidden partial file owned by the scope and moves it into
// place only once the renderer succeeded.
func (a *Assembler) render(ctx context.Context, r *run) error {
	fail := func(err error) error {
		return &narration_type.StageError{Stage: narration_type.StateFinalizing, Kind: narration_type.KindRenderFailure, Err: err}
	}

	output := r.req.OutputPath
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}
	partial := filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".partial")
	r.scope.Track(partial)

	if err := a.renderer.Render(ctx, r.entries, partial, a.config.Options); err != nil {
		return fail(err)
	}
	if err := os.Rename(partial, output); err != nil {
		return fail(fmt.Errorf("failed to move rendered video into place: %w", err))
	}
	return nil
}

func invalid(err error) error {
	return &narration_type.StageError{Stage: narration_type.StateIdle, Kind: narration_type.KindInvalidInput, Err: err}
}

func synthesisKind(err error) narration_type.ErrorKind {
	if speech.KindOf(err) == speech.KindRateLimited {
		return narration_type.KindSynthesisRateLimited
	}
	return narration_type.KindSynthesisFatal
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
