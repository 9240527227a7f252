package caption

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/serisow/narrador/tempfiles"
)

// Style controls the caption band.
type Style struct {
	Width      int
	Height     int
	FontSize   float64
	LineHeight int
	// Margin is subtracted from Width to get the wrap width.
	Margin     int
	Background color.NRGBA
	Foreground color.Color
}

var DefaultStyle = Style{
	Width:      1280,
	Height:     360,
	FontSize:   30,
	LineHeight: 40,
	Margin:     60,
	Background: color.NRGBA{R: 0, G: 0, B: 0, A: 180},
	Foreground: color.White,
}

// Renderer rasterizes captions and the closing subscribe card. It is safe
// for concurrent use; faces are created per call.
type Renderer struct {
	logger     *slog.Logger
	regular    *opentype.Font
	bold       *opentype.Font
	httpClient *http.Client
	style      Style
	card       SubscribeCard
}

// NewRenderer loads the given TrueType/OpenType fonts. Empty paths select
// the bundled Go fonts.
func NewRenderer(logger *slog.Logger, fontPath, boldPath string, style Style, card SubscribeCard) (*Renderer, error) {
	regular, err := loadFont(fontPath, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load caption font: %w", err)
	}
	bold, err := loadFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load bold caption font: %w", err)
	}
	if style.Width == 0 {
		style = DefaultStyle
	}
	return &Renderer{
		logger:     logger,
		regular:    regular,
		bold:       bold,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		style:      style,
		card:       card.withDefaults(),
	}, nil
}

func loadFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return opentype.Parse(data)
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Style returns the caption style in use.
func (r *Renderer) Style() Style {
	return r.style
}

// Wrap packs words greedily onto lines no wider than maxWidth. A word wider
// than maxWidth gets a line of its own and is never split.
func Wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	limit := fixed.I(maxWidth)
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate) > limit {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// Caption draws text onto a translucent band of the renderer's style.
func (r *Renderer) Caption(text string) (*image.RGBA, error) {
	s := r.style
	face, err := newFace(r.regular, s.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(s.Background), image.Point{}, draw.Src)

	lines := Wrap(face, text, s.Width-s.Margin)
	top := (s.Height - len(lines)*s.LineHeight) / 2
	for i, line := range lines {
		drawCentered(img, face, s.Foreground, line, top+i*s.LineHeight, s.LineHeight)
	}
	return img, nil
}

// CaptionFile renders a caption PNG owned by scope.
func (r *Renderer) CaptionFile(scope *tempfiles.Scope, text string) (string, error) {
	img, err := r.Caption(text)
	if err != nil {
		return "", err
	}
	return writePNG(scope, "caption_*.png", img)
}

// drawCentered draws line horizontally centered in dst, vertically centered
// within the box starting at top with the given height.
func drawCentered(dst draw.Image, face font.Face, fg color.Color, line string, top, height int) {
	m := face.Metrics()
	width := font.MeasureString(face, line)
	x := (fixed.I(dst.Bounds().Dx()) - width) / 2
	textHeight := m.Ascent + m.Descent
	baseline := fixed.I(top) + (fixed.I(height)-textHeight)/2 + m.Ascent

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: baseline},
	}
	d.DrawString(line)
}

func writePNG(scope *tempfiles.Scope, pattern string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode caption: %w", err)
	}
	return scope.WriteTemp(pattern, buf.Bytes())
}
