package render

import (
	"testing"

	"github.com/mvasseur/asciibeat/internal/config"
)

func gradientFrame(w, h int) *Frame {
	f := NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			f.Pix[i] = uint8(x * 255 / (w - 1))
			f.Pix[i+1] = uint8(y * 255 / (h - 1))
			f.Pix[i+2] = 128
			f.Pix[i+3] = 255
		}
	}
	return f
}

func TestCameraIdentityTransform(t *testing.T) {
	cfg := config.Default() // zoom 1, rotation 0, pan (0,0)
	var cam Camera

	if !cam.Identity(&cfg) {
		t.Fatal("default camera should be identity")
	}

	in := gradientFrame(32, 24)
	out := NewFrame(32, 24)
	cam.Apply(&cfg, in, out)

	for i := range in.Pix {
		if absDiff(in.Pix[i], out.Pix[i]) > 1 {
			t.Fatalf("identity camera changed pixel byte %d: %d → %d", i, in.Pix[i], out.Pix[i])
		}
	}
}

func TestCameraZoomSamplesCenter(t *testing.T) {
	cfg := config.Default()
	cfg.CameraZoomAmplitude = 2
	var cam Camera

	if cam.Identity(&cfg) {
		t.Fatal("zoomed camera must not be identity")
	}

	in := NewFrame(20, 20)
	// Bright center, dark border.
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			i := (y*20 + x) * 4
			in.Pix[i] = 255
			in.Pix[i+3] = 255
		}
	}
	out := NewFrame(20, 20)
	cam.Apply(&cfg, in, out)

	// At 2× zoom the bright 4×4 center covers roughly 8×8 output pixels.
	center := (10*20 + 10) * 4
	if out.Pix[center] < 200 {
		t.Fatalf("zoomed center = %d, want bright", out.Pix[center])
	}
	bright := 0
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] > 200 {
			bright++
		}
	}
	if bright < 36 {
		t.Fatalf("zoom did not magnify the center: %d bright pixels", bright)
	}
}

func TestCameraPanShifts(t *testing.T) {
	cfg := config.Default()
	cfg.CameraPanX = 0.25 // quarter-width shift
	var cam Camera

	in := gradientFrame(40, 10)
	out := NewFrame(40, 10)
	cam.Apply(&cfg, in, out)

	// Output pixel (x) samples input at (x - panX*W): pixel 20 shows what
	// input pixel 10 held.
	want := in.Pix[(5*40+10)*4]
	got := out.Pix[(5*40+20)*4]
	if absDiff(want, got) > 2 {
		t.Fatalf("pan: out[20] = %d, want in[10] = %d", got, want)
	}
}
