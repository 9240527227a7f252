package media

import (
	"image/color"
	"io"
	"math"
)

// ProceduralColor is the fill color of frame i of the generated background.
func ProceduralColor(i int) color.RGBA {
	f := float64(i)
	return color.RGBA{
		R: uint8(128 + 127*math.Sin(f*0.02)),
		G: uint8(128 + 127*math.Sin(f*0.01)),
		B: uint8(128 + 127*math.Sin(f*0.03)),
		A: 255,
	}
}

// writeProceduralFrames streams rgb24 frames to w.
func writeProceduralFrames(w io.Writer, width, height, frames int) error {
	frame := make([]byte, width*height*3)
	for i := 0; i < frames; i++ {
		c := ProceduralColor(i)
		row := frame[:width*3]
		for x := 0; x < width; x++ {
			row[x*3], row[x*3+1], row[x*3+2] = c.R, c.G, c.B
		}
		for y := 1; y < height; y++ {
			copy(frame[y*width*3:(y+1)*width*3], row)
		}
		if _, err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}
