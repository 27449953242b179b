package render

import (
	"testing"

	"github.com/mvasseur/asciibeat/internal/config"
)

func solidFrame(w, h int, v uint8) *Frame {
	f := NewFrame(w, h)
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i] = v
		f.Pix[i+1] = v
		f.Pix[i+2] = v
		f.Pix[i+3] = 255
	}
	return f
}

func TestGridDimensionsPerMode(t *testing.T) {
	modes := []config.RenderMode{
		config.ModeAscii, config.ModeHalfBlock, config.ModeBraille,
		config.ModeQuadrant, config.ModeSextant, config.ModeOctant,
	}
	for _, mode := range modes {
		cfg := config.Default()
		cfg.RenderMode = mode
		cfg.EdgeThreshold = 0
		cfg.DitherMode = config.DitherOff

		grid := NewGrid(16, 9)
		c := NewCompositor(cfg.Charset)
		sw, sh := SourceSize(16, 9, mode)
		c.Process(solidFrame(sw, sh, 200), &cfg, grid)

		if grid.W != 16 || grid.H != 9 {
			t.Fatalf("mode %v: grid %dx%d, want 16x9", mode, grid.W, grid.H)
		}
		for i, cell := range grid.Cells {
			if cell.Ch == 0 {
				t.Fatalf("mode %v: cell %d left unwritten", mode, i)
			}
		}
	}
}

func TestAsciiMidGraySolid(t *testing.T) {
	cfg := config.Default()
	cfg.Charset = " .:-=+*#%@"
	cfg.RenderMode = config.ModeAscii
	cfg.DitherMode = config.DitherOff
	cfg.EdgeThreshold = 0
	cfg.ColorEnabled = false
	cfg.Saturation = 1

	grid := NewGrid(10, 10)
	c := NewCompositor(cfg.Charset)
	c.Process(solidFrame(10, 10, 128), &cfg, grid)

	for i, cell := range grid.Cells {
		if cell.Ch != '+' {
			t.Fatalf("cell %d = %q, want '+' for mid gray", i, cell.Ch)
		}
	}
}

func TestBayerDitherAlternatesAdjacentGlyphs(t *testing.T) {
	cfg := config.Default()
	cfg.Charset = " .:-=+*#%@"
	cfg.RenderMode = config.ModeAscii
	cfg.DitherMode = config.DitherBayer8
	cfg.EdgeThreshold = 0

	grid := NewGrid(16, 16)
	c := NewCompositor(cfg.Charset)
	c.Process(solidFrame(16, 16, 120), &cfg, grid)

	lut := config.NewLuminanceLUT(cfg.Charset)
	seen := map[rune]bool{}
	var lo, hi float64 = 2, -1
	for _, cell := range grid.Cells {
		seen[cell.Ch] = true
		d := lut.Density(cell.Ch)
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if len(seen) < 2 {
		t.Fatal("dither produced a single glyph on a near-step luminance")
	}
	// Glyphs must stay adjacent in the ramp (one quantization step apart).
	if hi-lo > 1.0/9+1e-9 {
		t.Fatalf("dither glyphs not adjacent: density span %v", hi-lo)
	}
}

func TestInvertFlipsLuminance(t *testing.T) {
	cfg := config.Default()
	cfg.Charset = " .:-=+*#%@"
	cfg.RenderMode = config.ModeAscii
	cfg.DitherMode = config.DitherOff
	cfg.EdgeThreshold = 0
	cfg.Invert = true

	grid := NewGrid(4, 4)
	c := NewCompositor(cfg.Charset)
	c.Process(solidFrame(4, 4, 255), &cfg, grid)

	if got := grid.Cells[0].Ch; got != ' ' {
		t.Fatalf("inverted white = %q, want space", got)
	}
}

func TestHalfBlockPacksTwoColors(t *testing.T) {
	cfg := config.Default()
	cfg.RenderMode = config.ModeHalfBlock
	cfg.ColorMode = config.ColorDirect
	cfg.Saturation = 1

	// Top row red, bottom row blue.
	f := NewFrame(2, 2)
	for x := 0; x < 2; x++ {
		i := x * 4
		f.Pix[i] = 255
		f.Pix[i+3] = 255
		j := (2 + x) * 4
		f.Pix[j+2] = 255
		f.Pix[j+3] = 255
	}

	grid := NewGrid(2, 1)
	c := NewCompositor(cfg.Charset)
	c.Process(f, &cfg, grid)

	cell := grid.At(0, 0)
	if cell.Ch != '▄' {
		t.Fatalf("half block char = %q, want '▄'", cell.Ch)
	}
	if cell.Bg[0] < 200 || cell.Fg[2] < 200 {
		t.Fatalf("half block colors wrong: fg=%v bg=%v (want blue fg, red bg)", cell.Fg, cell.Bg)
	}
}

func TestSourceDimBackground(t *testing.T) {
	cfg := config.Default()
	cfg.RenderMode = config.ModeAscii
	cfg.BgStyle = config.BgSourceDim
	cfg.EdgeThreshold = 0
	cfg.DitherMode = config.DitherOff

	grid := NewGrid(2, 2)
	c := NewCompositor(cfg.Charset)
	c.Process(solidFrame(2, 2, 200), &cfg, grid)

	if got := grid.Cells[0].Bg[0]; got != 50 {
		t.Fatalf("SourceDim bg = %d, want 200/4 = 50", got)
	}
}

func TestShapeMatchingAutoDisable(t *testing.T) {
	cfg := config.Default()
	cfg.RenderMode = config.ModeAscii
	cfg.ShapeMatching = true
	cfg.EdgeThreshold = 0
	cfg.DitherMode = config.DitherOff

	// 120×120 = 14400 cells, above the auto-disable limit. The pass must
	// still complete and fill the grid with luminance glyphs.
	grid := NewGrid(120, 120)
	c := NewCompositor(cfg.Charset)
	c.Process(solidFrame(120, 120, 128), &cfg, grid)

	if grid.Cells[0].Ch == 0 {
		t.Fatal("grid not composited with shape matching auto-disabled")
	}
}

func TestGridSizeAspect(t *testing.T) {
	cfg := config.Default() // density 1, aspect 2
	gw, gh := GridSize(1280, 720, &cfg)
	if gw != 160 || gh != 45 {
		t.Fatalf("GridSize(1280,720) = %dx%d, want 160x45", gw, gh)
	}
}
