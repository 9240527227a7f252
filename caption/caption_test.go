package caption

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/serisow/narrador/tempfiles"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T, card SubscribeCard) *Renderer {
	t.Helper()
	r, err := NewRenderer(testLogger(), "", "", DefaultStyle, card)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

func TestWrap(t *testing.T) {
	r := newTestRenderer(t, SubscribeCard{})
	face, err := newFace(r.regular, 30)
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()

	long := "Esternocleidomastoideo"
	longWidth := font.MeasureString(face, long).Ceil()

	tests := []struct {
		name     string
		text     string
		maxWidth int
		want     int
	}{
		{"empty", "   ", 1220, 0},
		{"fits on one line", "Hola mundo", 1220, 1},
		{"one word per line", "uno dos tres", 10, 3},
		{"long word kept whole", long + " y", longWidth - 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Wrap(face, tt.text, tt.maxWidth)
			if len(lines) != tt.want {
				t.Fatalf("got %d lines %q, want %d", len(lines), lines, tt.want)
			}
			if strings.Join(lines, " ") != strings.Join(strings.Fields(tt.text), " ") {
				t.Errorf("words changed: %q", lines)
			}
		})
	}
}

func TestWrapRespectsWidth(t *testing.T) {
	r := newTestRenderer(t, SubscribeCard{})
	face, err := newFace(r.regular, 30)
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()

	text := strings.Repeat("La niebla cubría el valle mientras la campana sonaba. ", 8)
	for _, line := range Wrap(face, text, 1220) {
		if font.MeasureString(face, line) > fixed.I(1220) && strings.Contains(line, " ") {
			t.Errorf("line exceeds width: %q", line)
		}
	}
}

func TestCaptionBand(t *testing.T) {
	r := newTestRenderer(t, SubscribeCard{})
	img, err := r.Caption("Había una vez un pueblo escondido entre montañas.")
	if err != nil {
		t.Fatalf("Caption failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 1280, 360) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 180}) {
		t.Errorf("band corner = %v, want translucent black", got)
	}
	bright := 0
	for y := 0; y < 360; y++ {
		for x := 0; x < 1280; x++ {
			if img.RGBAAt(x, y).R > 200 {
				bright++
			}
		}
	}
	if bright == 0 {
		t.Error("expected text pixels in the band")
	}
}

func TestCaptionFileIsScoped(t *testing.T) {
	r := newTestRenderer(t, SubscribeCard{})
	scope, err := tempfiles.NewScope(testLogger(), t.TempDir(), "caption")
	if err != nil {
		t.Fatal(err)
	}
	path, err := r.CaptionFile(scope, "Hola.")
	if err != nil {
		t.Fatalf("CaptionFile failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(f)
	f.Close()
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if cfg.Width != 1280 || cfg.Height != 360 {
		t.Errorf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
	scope.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("caption not removed with scope")
	}
}

func TestSubscribeLogo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		logo := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for i := range logo.Pix {
			if i%4 == 2 || i%4 == 3 {
				logo.Pix[i] = 255
			}
		}
		png.Encode(w, logo)
	}))
	defer server.Close()

	tests := []struct {
		name     string
		url      string
		wantLogo bool
	}{
		{"logo pasted", server.URL + "/logo.png", true},
		{"missing logo degrades", server.URL + "/missing.png", false},
		{"no logo configured", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t, SubscribeCard{LogoURL: tt.url})
			img, err := r.Subscribe(context.Background())
			if err != nil {
				t.Fatalf("Subscribe failed: %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, 1280, 720) {
				t.Fatalf("unexpected bounds %v", img.Bounds())
			}
			fill := color.RGBA{R: 220, A: 220}
			if got := img.RGBAAt(20, 20); got != fill {
				t.Errorf("logo corner outside the circle = %v, want %v", got, fill)
			}
			center := img.RGBAAt(70, 70)
			hasLogo := center.B > 200 && center.R < 50
			if hasLogo != tt.wantLogo {
				t.Errorf("logo center = %v, wantLogo %v", center, tt.wantLogo)
			}
		})
	}
}
