package caption

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/serisow/narrador/tempfiles"
)

const logoSize = 100

// SubscribeCard is the full-frame call to action closing every video.
type SubscribeCard struct {
	Width    int
	Height   int
	Headline string
	Subline  string
	FontSize float64
	Fill     color.NRGBA
	LogoURL  string
}

func (c SubscribeCard) withDefaults() SubscribeCard {
	if c.Width == 0 || c.Height == 0 {
		c.Width, c.Height = 1280, 720
	}
	if c.Headline == "" {
		c.Headline = "¡SUSCRÍBETE!"
	}
	if c.Subline == "" {
		c.Subline = "Dale like y activa la campana"
	}
	if c.FontSize == 0 {
		c.FontSize = 60
	}
	if c.Fill == (color.NRGBA{}) {
		c.Fill = color.NRGBA{R: 255, G: 0, B: 0, A: 220}
	}
	return c
}

// Subscribe draws the card. A logo that cannot be fetched or decoded is
// logged and left out.
func (r *Renderer) Subscribe(ctx context.Context) (*image.RGBA, error) {
	c := r.card
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.Fill), image.Point{}, draw.Src)

	if c.LogoURL != "" {
		logo, err := r.fetchLogo(ctx, c.LogoURL)
		if err != nil {
			r.logger.Error("Error loading logo",
				slog.String("url", c.LogoURL),
				slog.String("error", err.Error()))
		} else {
			pasteCircular(img, logo, image.Pt(20, 20), logoSize)
		}
	}

	headFace, err := newFace(r.bold, c.FontSize)
	if err != nil {
		return nil, err
	}
	defer headFace.Close()
	subFace, err := newFace(r.regular, c.FontSize/2)
	if err != nil {
		return nil, err
	}
	defer subFace.Close()

	headHeight := (headFace.Metrics().Ascent + headFace.Metrics().Descent).Ceil()
	subHeight := (subFace.Metrics().Ascent + subFace.Metrics().Descent).Ceil()
	gap := 40
	top := (c.Height - headHeight - gap - subHeight) / 2

	drawCentered(img, headFace, color.White, c.Headline, top, headHeight)
	drawCentered(img, subFace, color.White, c.Subline, top+headHeight+gap, subHeight)
	return img, nil
}

// SubscribeFile renders the card to a PNG owned by scope.
func (r *Renderer) SubscribeFile(ctx context.Context, scope *tempfiles.Scope) (string, error) {
	img, err := r.Subscribe(ctx)
	if err != nil {
		return "", err
	}
	return writePNG(scope, "subscribe_*.png", img)
}

func (r *Renderer) fetchLogo(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	logo, _, err := image.Decode(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}
	return logo, nil
}

// circle is an alpha mask of a disc inscribed in a size×size square.
type circle struct {
	size int
}

func (c circle) ColorModel() color.Model { return color.AlphaModel }

func (c circle) Bounds() image.Rectangle { return image.Rect(0, 0, c.size, c.size) }

func (c circle) At(x, y int) color.Color {
	r := float64(c.size) / 2
	dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
	if dx*dx+dy*dy <= r*r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

func pasteCircular(dst draw.Image, logo image.Image, at image.Point, size int) {
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), logo, logo.Bounds(), draw.Src, nil)
	rect := image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}
	draw.DrawMask(dst, rect, scaled, image.Point{}, circle{size: size}, image.Point{}, draw.Over)
}
