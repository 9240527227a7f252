package narration_type

import (
	"fmt"
	"time"
)

// PromotionalDuration is the fixed length of the closing call-to-action entry.
const PromotionalDuration = 5.0

// State is a stage of a single pipeline invocation.
type State string

const (
	StateIdle           State = "idle"
	StateSplitting      State = "splitting"
	StatePerSegmentLoop State = "per_segment_loop"
	StateFinalizing     State = "finalizing"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Segment is one narration unit. Index is 1-based.
type Segment struct {
	Index         int     `json:"index"`
	Text          string  `json:"text"`
	StartOffset   float64 `json:"start_offset"`
	AudioDuration float64 `json:"audio_duration"`
	Category      string  `json:"category,omitempty"`
}

// Clip is a media file with a known natural duration in seconds.
type Clip struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
}

// TimelineEntry is one composed unit of the final sequence.
type TimelineEntry struct {
	Index       int     `json:"index"`
	Text        string  `json:"text,omitempty"`
	Caption     string  `json:"caption"`
	Background  Clip    `json:"background"`
	Audio       string  `json:"audio,omitempty"`
	StartOffset float64 `json:"start_offset"`
	Duration    float64 `json:"duration"`
	Promotional bool    `json:"promotional"`
	// Composed is the rendered sub-clip for this entry.
	Composed string `json:"composed"`
}

// BackgroundMode selects how segment backgrounds are obtained.
type BackgroundMode string

const (
	BackgroundExplicit   BackgroundMode = "explicit"
	BackgroundStock      BackgroundMode = "stock"
	BackgroundProcedural BackgroundMode = "procedural"
)

// Request describes one narration run.
type Request struct {
	Text           string
	Voice          string
	UseStock       bool
	BackgroundPath string
	OutputPath     string
	Grouped        bool
}

// RenderOptions are handed to the render collaborator.
type RenderOptions struct {
	FrameRate  int
	VideoCodec string
	AudioCodec string
}

// Result is the outcome of a pipeline invocation.
type Result struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	OutputPath  string          `json:"output_path,omitempty"`
	Segments    []Segment       `json:"segments,omitempty"`
	Entries     []TimelineEntry `json:"entries,omitempty"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
	Elapsed     time.Duration   `json:"elapsed"`
}

// Outcome returns the (success, message) pair shown to users.
func (r Result) Outcome() (bool, string) {
	return r.Success, r.Message
}

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindSynthesisRateLimited   ErrorKind = "synthesis_rate_limited"
	KindSynthesisFatal         ErrorKind = "synthesis_fatal"
	KindBackgroundUnavailable  ErrorKind = "background_unavailable"
	KindCaptionFailure         ErrorKind = "caption_failure"
	KindCompositionFailure     ErrorKind = "composition_failure"
	KindRenderFailure          ErrorKind = "render_failure"
	KindResourceCleanupFailure ErrorKind = "resource_cleanup_failure"
	KindInvalidInput           ErrorKind = "invalid_input"
	KindCancelled              ErrorKind = "cancelled"
)

// StageError wraps a failure with the stage and kind it happened in.
type StageError struct {
	Stage   State
	Kind    ErrorKind
	Segment int
	Err     error
}

func (e *StageError) Error() string {
	if e.Segment > 0 {
		return fmt.Sprintf("%s (segment %d): %v", e.Stage, e.Segment, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
