package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/serisow/narrador/caption"
	"github.com/serisow/narrador/media"
)

func TestCaptionStyleFollowsFrame(t *testing.T) {
	tests := []struct {
		quality       string
		width, height int
	}{
		{quality: "low", width: 640, height: 180},
		{quality: "medium", width: 1280, height: 360},
		{quality: "high", width: 1920, height: 540},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			frame := media.GetResolution(tt.quality)
			style := newCaptionStyle(frame)
			if style.Width != tt.width || style.Height != tt.height {
				t.Fatalf("style %dx%d, want %dx%d", style.Width, style.Height, tt.width, tt.height)
			}
			if style.FontSize != caption.DefaultStyle.FontSize || style.Background != caption.DefaultStyle.Background {
				t.Errorf("non-size fields changed: %+v", style)
			}

			r, err := caption.NewRenderer(logger, "", "", style, caption.SubscribeCard{Width: frame.Width, Height: frame.Height})
			if err != nil {
				t.Fatalf("NewRenderer failed: %v", err)
			}
			img, err := r.Caption("La montaña era enorme.")
			if err != nil {
				t.Fatalf("Caption failed: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("caption image %v, want %dx%d", b, tt.width, tt.height)
			}
		})
	}
}

func TestProceduralSpecUsesConfiguredFrame(t *testing.T) {
	spec := newProceduralSpec(media.GetResolution("medium"), 30)
	want := media.ProceduralSpec{Width: 1280, Height: 720, FrameRate: 30}
	if spec != want {
		t.Errorf("newProceduralSpec = %+v, want %+v", spec, want)
	}
}
