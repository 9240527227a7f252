package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/serisow/narrador/narration_type"
)

// offsetTolerance absorbs float accumulation when checking start offsets.
const offsetTolerance = 1e-6

// Renderer concatenates composed timeline entries into the final video.
type Renderer struct {
	logger   *slog.Logger
	executor FFmpegExecutor
}

func NewRenderer(logger *slog.Logger, executor FFmpegExecutor) *Renderer {
	return &Renderer{logger: logger, executor: executor}
}

// Render checks that entries are ordered and gapless, then concatenates them
// to outputPath.
func (r *Renderer) Render(ctx context.Context, entries []narration_type.TimelineEntry, outputPath string, opts narration_type.RenderOptions) error {
	if err := ValidateTimeline(entries); err != nil {
		return err
	}

	inputs := make([]string, len(entries))
	for i, e := range entries {
		inputs[i] = e.Composed
	}

	r.logger.Info("Rendering timeline",
		slog.Int("entries", len(entries)),
		slog.String("output", outputPath),
		slog.Int("frame_rate", opts.FrameRate))

	return r.executor.Concat(ctx, inputs, outputPath, opts)
}

// ValidateTimeline verifies entry order and that every start offset equals
// the sum of the previous durations.
func ValidateTimeline(entries []narration_type.TimelineEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("empty timeline")
	}
	clock := 0.0
	for i, e := range entries {
		if e.Composed == "" {
			return fmt.Errorf("entry %d has not been composed", e.Index)
		}
		if i > 0 && e.Index <= entries[i-1].Index {
			return fmt.Errorf("entry %d out of order", e.Index)
		}
		if math.Abs(e.StartOffset-clock) > offsetTolerance {
			return fmt.Errorf("entry %d starts at %.3f, expected %.3f", e.Index, e.StartOffset, clock)
		}
		if e.Duration <= 0 {
			return fmt.Errorf("entry %d has no duration", e.Index)
		}
		clock += e.Duration
	}
	return nil
}
