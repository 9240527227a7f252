package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/serisow/narrador/narration_type"
)

// FFmpegExecutorImpl implements FFmpegExecutor with the ffmpeg/ffprobe
// binaries.
type FFmpegExecutorImpl struct {
	logger      *slog.Logger
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegExecutor creates a new FFmpeg executor instance
func NewFFmpegExecutor(logger *slog.Logger, ffmpegPath, ffprobePath string) *FFmpegExecutorImpl {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegExecutorImpl{
		logger:      logger,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// GetResolution returns the frame size for a quality setting.
func GetResolution(quality string) FrameSize {
	switch quality {
	case "low":
		return FrameSize{Width: 640, Height: 360}
	case "high":
		return FrameSize{Width: 1920, Height: 1080}
	case "medium":
		fallthrough
	default:
		return FrameSize{Width: 1280, Height: 720}
	}
}

// GetDuration gets the duration of a media file using ffprobe
func (fe *FFmpegExecutorImpl) GetDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, fe.ffprobePath, "-i", filePath, "-show_entries", "format=duration", "-v", "quiet", "-of", "csv=p=0")
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("media has no duration: %s", filePath)
	}

	return duration, nil
}

// FitClip loops and/or trims clip to exactly target seconds. The clip's own
// audio is dropped.
func (fe *FFmpegExecutorImpl) FitClip(ctx context.Context, clip Clip, target float64, outputPath string) (Clip, error) {
	plan := PlanFit(clip.Duration, target)

	args := []string{"-y"}
	if plan.Repetitions > 1 {
		args = append(args, "-stream_loop", strconv.Itoa(plan.Repetitions-1))
	}
	args = append(args,
		"-i", clip.Path,
		"-t", formatSeconds(plan.Trim),
		"-an",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		outputPath)

	fe.logger.Debug("Fitting clip",
		slog.String("source", clip.Path),
		slog.Float64("natural", clip.Duration),
		slog.Float64("target", target),
		slog.Int("repetitions", plan.Repetitions))

	if err := fe.run(ctx, "fit_clip", args, nil); err != nil {
		return Clip{}, err
	}
	return Clip{Path: outputPath, Duration: plan.Trim}, nil
}

// GenerateProcedural renders the animated color fallback at a fixed size.
func (fe *FFmpegExecutorImpl) GenerateProcedural(ctx context.Context, spec ProceduralSpec, duration float64, outputPath string) (Clip, error) {
	frames := FrameCount(duration, spec.FrameRate)
	args := []string{"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-r", strconv.Itoa(spec.FrameRate),
		"-i", "-",
		"-t", formatSeconds(duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		outputPath}

	pr, pw, err := os.Pipe()
	if err != nil {
		return Clip{}, fmt.Errorf("failed to create frame pipe: %w", err)
	}
	writeErr := make(chan error, 1)
	go func() {
		err := writeProceduralFrames(pw, spec.Width, spec.Height, frames)
		pw.Close()
		writeErr <- err
	}()

	runErr := fe.run(ctx, "procedural_background", args, pr)
	pr.Close()
	if werr := <-writeErr; werr != nil && runErr == nil {
		runErr = &MediaError{Stage: "procedural_background", Err: fmt.Errorf("failed to write frames: %w", werr)}
	}
	if runErr != nil {
		return Clip{}, runErr
	}
	return Clip{Path: outputPath, Duration: duration}, nil
}

// ComposeEntry encodes background, caption and audio into one sub-clip of
// exactly spec.Duration.
func (fe *FFmpegExecutorImpl) ComposeEntry(ctx context.Context, spec ComposeSpec) error {
	w, h := spec.Frame.Width, spec.Frame.Height
	fps := spec.Options.FrameRate
	duration := formatSeconds(spec.Duration)

	args := []string{"-y"}
	if spec.Background.Path != "" {
		args = append(args, "-i", spec.Background.Path)
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s", w, h, fps, duration))
	}
	args = append(args, "-loop", "1", "-i", spec.Caption)
	if spec.Audio != "" {
		args = append(args, "-i", spec.Audio)
	} else {
		args = append(args, "-f", "lavfi", "-t", duration, "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}

	position := "x=(W-w)/2:y=H-h"
	if spec.FullFrame {
		position = "x=0:y=0"
	}
	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d[bg];[bg][1:v]overlay=%s,format=yuv420p[v]",
		w, h, w, h, fps, position)

	args = append(args,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "2:a",
		"-t", duration,
		"-c:v", spec.Options.VideoCodec,
		"-c:a", spec.Options.AudioCodec,
		"-ar", "44100",
		"-ac", "2",
		"-r", strconv.Itoa(fps),
		"-pix_fmt", "yuv420p",
		spec.OutputPath)

	return fe.run(ctx, "compose_entry", args, nil)
}

// Concat joins already composed entries in order.
func (fe *FFmpegExecutorImpl) Concat(ctx context.Context, inputs []string, outputPath string, opts narration_type.RenderOptions) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs to concatenate")
	}

	var list strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("failed to resolve input path: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	listFile := outputPath + ".concat.txt"
	if err := os.WriteFile(listFile, []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listFile)

	args := []string{"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:v", opts.VideoCodec,
		"-c:a", opts.AudioCodec,
		"-r", strconv.Itoa(opts.FrameRate),
		"-pix_fmt", "yuv420p",
		"-preset", "ultrafast",
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath}

	if err := fe.run(ctx, "concat", args, nil); err != nil {
		return err
	}

	// Verify output file exists
	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return &MediaError{Stage: "concat", Err: errors.New("FFmpeg did not create an output file")}
	}
	return nil
}

func (fe *FFmpegExecutorImpl) run(ctx context.Context, stage string, args []string, stdin *os.File) error {
	fe.logger.Debug("Executing FFmpeg command", slog.String("stage", stage), slog.Any("args", args))

	cmd := exec.CommandContext(ctx, fe.ffmpegPath, append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Run(); err != nil {
		fe.logger.Error("FFmpeg execution failed",
			slog.String("stage", stage),
			slog.String("error", err.Error()),
			slog.String("stderr", stderr.String()))
		return &MediaError{Stage: stage, Stderr: stderr.String(), Err: fmt.Errorf("FFmpeg execution failed: %w", err)}
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
