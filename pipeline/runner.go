package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serisow/narrador/category"
	"github.com/serisow/narrador/narration_type"
	"github.com/serisow/narrador/speech"
)

type Assembler interface {
	Run(ctx context.Context, req narration_type.Request, table *category.Table, observe func(narration_type.State, string)) narration_type.Result
}

// RunRepository persists finished runs.
type RunRepository interface {
	SaveRun(ctx context.Context, record RunRecord) error
	GetRun(ctx context.Context, runID string) (RunRecord, error)
}

type Notifier interface {
	NotifyRunFinished(ctx context.Context, record RunRecord) error
}

// Submission is a narration request as received from a client.
type Submission struct {
	Text           string
	Voice          string
	UseStock       bool
	Grouped        bool
	BackgroundPath string
	OutputName     string
	// OwnedFiles are uploads the run takes over and deletes when done.
	OwnedFiles []string
}

// Runner executes submissions asynchronously and tracks them in a RunStore.
type Runner struct {
	logger     *slog.Logger
	assembler  Assembler
	categories *category.Store
	store      *RunStore
	repo       RunRepository
	notifier   Notifier
	outputDir  string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(logger *slog.Logger, assembler Assembler, categories *category.Store, store *RunStore, outputDir string) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger:     logger,
		assembler:  assembler,
		categories: categories,
		store:      store,
		outputDir:  outputDir,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (r *Runner) WithRepository(repo RunRepository) *Runner {
	r.repo = repo
	return r
}

func (r *Runner) WithNotifier(n Notifier) *Runner {
	r.notifier = n
	return r
}

func (r *Runner) Store() *RunStore {
	return r.store
}

// OutputDir is where finished videos are written.
func (r *Runner) OutputDir() string {
	return r.outputDir
}

// Submit validates sub and starts the run in the background.
func (r *Runner) Submit(sub Submission) (RunRecord, error) {
	if strings.TrimSpace(sub.Text) == "" {
		removeAll(r.logger, sub.OwnedFiles)
		return RunRecord{}, errors.New("narration text is empty")
	}
	if _, err := speech.LookupVoice(sub.Voice); err != nil {
		removeAll(r.logger, sub.OwnedFiles)
		return RunRecord{}, err
	}
	if sub.Voice == "" {
		sub.Voice = speech.DefaultVoice
	}

	runID := uuid.New().String()
	outputFile := fmt.Sprintf("%s_%s.mp4", SanitizeOutputName(sub.OutputName), runID[:8])
	record := &RunRecord{
		RunID:       runID,
		Status:      StatusStarted,
		Stage:       narration_type.StateIdle,
		Voice:       sub.Voice,
		UseStock:    sub.UseStock,
		OutputFile:  outputFile,
		SubmittedAt: timeProvider.Now().Format(time.RFC3339),
	}
	r.store.Add(record)

	r.logger.Info("Narration run submitted",
		slog.String("run_id", runID),
		slog.String("voice", sub.Voice),
		slog.Bool("use_stock", sub.UseStock),
		slog.Bool("grouped", sub.Grouped))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(runID, sub, filepath.Join(r.outputDir, outputFile))
	}()
	return *record, nil
}

func (r *Runner) execute(runID string, sub Submission, outputPath string) {
	defer removeAll(r.logger, sub.OwnedFiles)

	req := narration_type.Request{
		Text:           sub.Text,
		Voice:          sub.Voice,
		UseStock:       sub.UseStock,
		BackgroundPath: sub.BackgroundPath,
		OutputPath:     outputPath,
		Grouped:        sub.Grouped,
	}
	observe := func(state narration_type.State, detail string) {
		r.store.Update(runID, func(rec *RunRecord) {
			rec.Stage = state
			rec.Detail = detail
		})
	}

	result := r.assembler.Run(r.ctx, req, r.categories.Snapshot(), observe)

	var duration float64
	for _, e := range result.Entries {
		duration += e.Duration
	}
	var final RunRecord
	r.store.Update(runID, func(rec *RunRecord) {
		rec.Status = StatusCompleted
		if !result.Success {
			rec.Status = StatusFailed
			rec.OutputFile = ""
		}
		rec.Message = result.Message
		rec.Segments = len(result.Segments)
		rec.Duration = duration
		rec.Diagnostics = result.Diagnostics
		rec.CompletedAt = timeProvider.Now().Format(time.RFC3339)
		final = *rec
	})

	r.logger.Info("Narration run finished",
		slog.String("run_id", runID),
		slog.String("status", string(final.Status)),
		slog.String("message", final.Message),
		slog.Duration("elapsed", result.Elapsed))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if r.repo != nil {
		if err := r.repo.SaveRun(ctx, final); err != nil {
			r.logger.Error("Failed to persist run", slog.String("run_id", runID), slog.String("error", err.Error()))
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyRunFinished(ctx, final); err != nil {
			r.logger.Error("Failed to send run notification", slog.String("run_id", runID), slog.String("error", err.Error()))
		}
	}
}

// Lookup finds a run in memory, then in the repository.
func (r *Runner) Lookup(ctx context.Context, runID string) (RunRecord, error) {
	if rec, ok := r.store.Get(runID); ok {
		return rec, nil
	}
	if r.repo == nil {
		return RunRecord{}, ErrRunNotFound
	}
	return r.repo.GetRun(ctx, runID)
}

// Wait blocks until every submitted run has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels in-flight runs and waits for them until ctx expires.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SanitizeOutputName reduces a client supplied name to a safe file stem.
func SanitizeOutputName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		return "video"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

func removeAll(logger *slog.Logger, paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to remove uploaded file", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
}
