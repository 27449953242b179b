package export

import (
	"strings"
	"testing"

	"github.com/mvasseur/asciibeat/internal/render"
)

// testRasterizer skips the test when no system font is available.
func testRasterizer(t *testing.T) *Rasterizer {
	t.Helper()
	font, err := FindFont()
	if err != nil {
		t.Skipf("no system font: %v", err)
	}
	r, err := NewRasterizer(font, 16)
	if err != nil {
		t.Fatalf("NewRasterizer() error = %v", err)
	}
	return r
}

func TestEmptyGridRendersBlack(t *testing.T) {
	r := testRasterizer(t)
	grid := render.NewGrid(4, 2)
	w, h := r.TargetDimensions(4, 2)
	out := make([]uint8, w*h*3)
	for i := range out {
		out[i] = 0xAA // ensure every byte is overwritten
	}

	if err := r.Render(grid, 0, 0, false, out); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0 for an all-space black grid", i, b)
		}
	}
}

func TestRenderDrawsGlyph(t *testing.T) {
	r := testRasterizer(t)
	grid := render.NewGrid(1, 1)
	grid.Set(0, 0, render.Cell{Ch: '@', Fg: render.RGB{255, 255, 255}})

	w, h := r.TargetDimensions(1, 1)
	out := make([]uint8, w*h*3)
	if err := r.Render(grid, 0, 0, false, out); err != nil {
		t.Fatal(err)
	}

	lit := 0
	for i := 0; i < len(out); i += 3 {
		if out[i] > 128 {
			lit++
		}
	}
	if lit == 0 {
		t.Fatal("'@' produced no lit pixels")
	}
}

func TestMissingGlyphSkippedSilently(t *testing.T) {
	r := testRasterizer(t)
	grid := render.NewGrid(1, 1)
	// A codepoint virtually no font carries; the background must show.
	grid.Set(0, 0, render.Cell{Ch: 0x1CD42, Fg: render.RGB{255, 255, 255}, Bg: render.RGB{10, 20, 30}})

	w, h := r.TargetDimensions(1, 1)
	out := make([]uint8, w*h*3)
	if err := r.Render(grid, 0, 0, false, out); err != nil {
		t.Fatal(err)
	}

	if _, cached := r.glyphs[0x1CD42]; cached {
		t.Skip("font actually has octant glyphs; skip the fallback check")
	}
	if out[0] != 10 || out[1] != 20 || out[2] != 30 {
		t.Fatalf("background not visible under a missing glyph: %v", out[:3])
	}
}

func TestZalgoIsDeterministic(t *testing.T) {
	r := testRasterizer(t)
	grid := render.NewGrid(4, 1)
	for x := 0; x < 4; x++ {
		grid.Set(x, 0, render.Cell{Ch: 'o', Fg: render.RGB{200, 200, 200}})
	}

	w, h := r.TargetDimensions(4, 1)
	a := make([]uint8, w*h*3)
	b := make([]uint8, w*h*3)
	if err := r.Render(grid, 3, 7, false, a); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(grid, 3, 7, false, b); err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("zalgo output differs at byte %d for identical frame index", i)
		}
	}
}

func TestDefaultOutputName(t *testing.T) {
	name := DefaultOutputName("clips")
	if !strings.HasPrefix(name, "clips_") || !strings.HasSuffix(name, ".mp4") {
		t.Fatalf("DefaultOutputName = %q", name)
	}
}
