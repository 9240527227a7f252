package media

import (
	"context"

	"github.com/serisow/narrador/narration_type"
)

// Clip is re-exported for callers that only deal with media.
type Clip = narration_type.Clip

// FrameSize is a video frame in pixels.
type FrameSize struct {
	Width  int
	Height int
}

// ProceduralSpec describes the generated fallback background.
type ProceduralSpec struct {
	Width     int
	Height    int
	FrameRate int
}

// ComposeSpec describes one timeline entry to encode.
type ComposeSpec struct {
	// Background is the fitted clip; an empty path composes over a solid
	// still frame.
	Background Clip
	Caption    string
	// FullFrame overlays the caption at the top-left corner instead of
	// bottom-center.
	FullFrame bool
	// Audio is the narration track; empty means silence.
	Audio      string
	Duration   float64
	Frame      FrameSize
	Options    narration_type.RenderOptions
	OutputPath string
}

// FFmpegExecutor runs the media operations the pipeline needs.
type FFmpegExecutor interface {
	GetDuration(ctx context.Context, filePath string) (float64, error)
	FitClip(ctx context.Context, clip Clip, target float64, outputPath string) (Clip, error)
	GenerateProcedural(ctx context.Context, spec ProceduralSpec, duration float64, outputPath string) (Clip, error)
	ComposeEntry(ctx context.Context, spec ComposeSpec) error
	Concat(ctx context.Context, inputs []string, outputPath string, opts narration_type.RenderOptions) error
}

// MediaError represents a failed media operation.
type MediaError struct {
	Stage  string
	Stderr string
	Err    error
}

func (e *MediaError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *MediaError) Unwrap() error {
	return e.Err
}
