// Package source decodes the ordered media file list into fixed-size RGBA
// frames, crossfading between clips and pacing clip duration by energy.
package source

import (
	"image"
	"image/draw"
	"image/gif"
	"os"

	"github.com/disintegration/imaging"

	"github.com/mvasseur/asciibeat/internal/render"
)

// loadStill decodes a still image at its native size.
func loadStill(path string) (image.Image, error) {
	return imaging.Open(path)
}

// gifClip plays an animated GIF, advancing frames by their encoded delays.
// Frames are coalesced at load time so disposal modes do not leave holes.
type gifClip struct {
	frames []*image.NRGBA
	delays []float64 // seconds per frame
	idx    int
	clock  float64
}

// loadGIF decodes an animated GIF. Single-frame GIFs return nil so the
// caller falls back to the still path.
func loadGIF(path string) (*gifClip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, err
	}
	if len(g.Image) < 2 {
		return nil, nil
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		bounds = g.Image[0].Bounds()
	}

	clip := &gifClip{
		frames: make([]*image.NRGBA, 0, len(g.Image)),
		delays: make([]float64, 0, len(g.Image)),
	}

	canvas := image.NewNRGBA(bounds)
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		snapshot := image.NewNRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)
		clip.frames = append(clip.frames, snapshot)

		delay := float64(g.Delay[i]) / 100
		if delay <= 0 {
			delay = 0.1
		}
		clip.delays = append(clip.delays, delay)
	}
	return clip, nil
}

// advance moves the playhead by dt seconds and returns the current frame,
// looping at the end.
func (c *gifClip) advance(dt float64) *image.NRGBA {
	c.clock += dt
	for c.clock >= c.delays[c.idx] {
		c.clock -= c.delays[c.idx]
		c.idx = (c.idx + 1) % len(c.frames)
	}
	return c.frames[c.idx]
}

// resizeInto scales an image to the frame's dimensions with Lanczos
// resampling and copies the pixels in.
func resizeInto(img image.Image, dst *render.Frame) {
	if dst.W == 0 || dst.H == 0 {
		return
	}
	resized := imaging.Resize(img, dst.W, dst.H, imaging.Lanczos)
	copy(dst.Pix, resized.Pix)
}
