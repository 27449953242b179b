package render

import (
	"math"

	"github.com/mvasseur/asciibeat/internal/config"
)

// Camera applies the virtual-camera affine transform (zoom about center,
// rotation, pan) to a pixel frame with reverse mapping and bilinear
// interpolation. Border pixels fall back to nearest neighbor.
type Camera struct{}

// Identity reports whether the camera fields describe a no-op transform.
func (Camera) Identity(cfg *config.Render) bool {
	return math.Abs(cfg.CameraZoomAmplitude-1) < 1e-9 &&
		math.Abs(math.Mod(cfg.CameraRotation, 2*math.Pi)) < 1e-9 &&
		math.Abs(cfg.CameraPanX) < 1e-9 &&
		math.Abs(cfg.CameraPanY) < 1e-9
}

// Apply warps in into out. Identical dimensions are required; an identity
// transform is a plain copy.
func (c Camera) Apply(cfg *config.Render, in, out *Frame) {
	if in.W != out.W || in.H != out.H {
		return
	}
	if c.Identity(cfg) {
		out.CopyFrom(in)
		return
	}

	zoom := cfg.CameraZoomAmplitude
	if zoom < 0.01 {
		zoom = 0.01
	}
	rot := math.Mod(cfg.CameraRotation, 2*math.Pi)
	sin, cos := math.Sincos(rot)

	w := float64(out.W)
	h := float64(out.H)
	cxOut := w / 2
	cyOut := h / 2
	cxIn := float64(in.W) / 2
	cyIn := float64(in.H) / 2

	inStride := in.W * 4
	outStride := out.W * 4

	for y := 0; y < out.H; y++ {
		yf := float64(y) - cyOut
		rowOff := y * outStride
		for x := 0; x < out.W; x++ {
			xf := float64(x) - cxOut

			// Reverse pan, zoom, then rotation.
			xp := (xf - cfg.CameraPanX*w) / zoom
			yp := (yf - cfg.CameraPanY*h) / zoom
			sx := xp*cos - yp*sin + cxIn
			sy := xp*sin + yp*cos + cyIn

			outIdx := rowOff + x*4

			x0 := int(math.Floor(sx))
			y0 := int(math.Floor(sy))
			if x0 >= 0 && x0+1 < in.W && y0 >= 0 && y0+1 < in.H {
				fx := sx - float64(x0)
				fy := sy - float64(y0)
				w00 := (1 - fx) * (1 - fy)
				w10 := fx * (1 - fy)
				w01 := (1 - fx) * fy
				w11 := fx * fy

				i00 := y0*inStride + x0*4
				i10 := i00 + 4
				i01 := i00 + inStride
				i11 := i01 + 4
				for ch := 0; ch < 4; ch++ {
					v := float64(in.Pix[i00+ch])*w00 +
						float64(in.Pix[i10+ch])*w10 +
						float64(in.Pix[i01+ch])*w01 +
						float64(in.Pix[i11+ch])*w11
					out.Pix[outIdx+ch] = uint8(v + 0.5)
				}
				continue
			}

			// Border: nearest neighbor, black outside.
			xn := int(math.Round(sx))
			yn := int(math.Round(sy))
			if xn >= 0 && xn < in.W && yn >= 0 && yn < in.H {
				inIdx := yn*inStride + xn*4
				copy(out.Pix[outIdx:outIdx+4], in.Pix[inIdx:inIdx+4])
				continue
			}
			out.Pix[outIdx] = 0
			out.Pix[outIdx+1] = 0
			out.Pix[outIdx+2] = 0
			out.Pix[outIdx+3] = 0
		}
	}
}
