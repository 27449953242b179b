package render

import (
	"testing"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/timeline"
)

// zeroEffects returns a config with every effect parameter at zero.
func zeroEffects() config.Render {
	cfg := config.Default()
	cfg.FadeDecay = 0
	cfg.GlowIntensity = 0
	cfg.ZalgoIntensity = 0
	cfg.BeatFlashIntensity = 0
	cfg.ChromaticOffset = 0
	cfg.WaveAmplitude = 0
	cfg.ColorPulseSpeed = 0
	cfg.ScanlineGap = 0
	cfg.TemporalStability = 0
	return cfg
}

func testGrid(w, h int) *Grid {
	g := NewGrid(w, h)
	for i := range g.Cells {
		g.Cells[i] = Cell{Ch: rune('a' + i%26), Fg: RGB{uint8(i * 7), uint8(i * 13), uint8(i * 29)}}
	}
	return g
}

func lutDensity(r rune) float64 { return float64(r%96) / 95 }

func TestEffectChainIdentityAtZero(t *testing.T) {
	cfg := zeroEffects()
	chain := NewEffectChain(8, 6)
	grid := testGrid(8, 6)
	want := NewGrid(8, 6)
	want.CopyFrom(grid)

	feats := timeline.Features{}
	for frame := 0; frame < 3; frame++ {
		chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)
		for i := range grid.Cells {
			if grid.Cells[i] != want.Cells[i] {
				t.Fatalf("frame %d cell %d changed: %+v != %+v", frame, i, grid.Cells[i], want.Cells[i])
			}
		}
	}
}

func TestWaveWrapsRows(t *testing.T) {
	cfg := zeroEffects()
	cfg.WaveAmplitude = 1
	cfg.WaveSpeed = 5
	chain := NewEffectChain(10, 4)
	grid := testGrid(10, 4)

	before := map[int]map[Cell]int{}
	for y := 0; y < 4; y++ {
		before[y] = map[Cell]int{}
		for x := 0; x < 10; x++ {
			before[y][*grid.At(x, y)]++
		}
	}

	feats := timeline.Features{}
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	// Shifted rows are permutations: same multiset of cells per row.
	for y := 0; y < 4; y++ {
		after := map[Cell]int{}
		for x := 0; x < 10; x++ {
			after[*grid.At(x, y)]++
		}
		for c, n := range before[y] {
			if after[c] != n {
				t.Fatalf("row %d lost cells under wave distortion", y)
			}
		}
	}
}

func TestStrobeBoostsChannels(t *testing.T) {
	cfg := zeroEffects()
	cfg.BeatFlashIntensity = 1
	cfg.StrobeDecay = 0.75
	chain := NewEffectChain(4, 4)
	grid := NewGrid(4, 4)
	for i := range grid.Cells {
		grid.Cells[i] = Cell{Ch: '#', Fg: RGB{100, 100, 100}}
	}

	feats := timeline.Features{Onset: true, BeatIntensity: 1}
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	if got := grid.Cells[0].Fg[0]; got <= 100 {
		t.Fatalf("strobe did not boost fg: %d", got)
	}

	// Envelope decays multiplicatively afterwards.
	e0 := chain.Envelope()
	feats.Onset = false
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)
	if chain.Envelope() >= e0 {
		t.Fatalf("envelope did not decay: %v → %v", e0, chain.Envelope())
	}
}

func TestScanLinesDarkenFormula(t *testing.T) {
	cfg := zeroEffects()
	cfg.ScanlineGap = 1
	cfg.ScanlineDarken = 0 // factor = 0.3
	chain := NewEffectChain(4, 4)
	grid := NewGrid(4, 4)
	for i := range grid.Cells {
		grid.Cells[i] = Cell{Ch: '#', Fg: RGB{200, 200, 200}}
	}

	feats := timeline.Features{}
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	// Rows 0 and 2 darken (gap+1 = 2), rows 1 and 3 stay.
	if got := grid.At(0, 0).Fg[0]; got != 60 {
		t.Fatalf("scanline row fg = %d, want 60", got)
	}
	if got := grid.At(0, 1).Fg[0]; got != 200 {
		t.Fatalf("untouched row fg = %d, want 200", got)
	}
}

func TestChromaticAberrationShiftsChannels(t *testing.T) {
	cfg := zeroEffects()
	cfg.ChromaticOffset = 1
	chain := NewEffectChain(5, 1)
	grid := NewGrid(5, 1)
	// A single red hotspot in the middle.
	grid.Cells[2] = Cell{Ch: '#', Fg: RGB{255, 0, 0}}

	feats := timeline.Features{}
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	// R at cell 1 now borrows from cell 2; B at cell 3 likewise.
	if grid.Cells[1].Fg[0] != 255 {
		t.Errorf("R channel not shifted left: %+v", grid.Cells[1].Fg)
	}
	if grid.Cells[2].Fg[0] != 0 {
		t.Errorf("center R should now borrow from cell 3: %+v", grid.Cells[2].Fg)
	}
}

func TestGlowSpreadsToNeighbors(t *testing.T) {
	cfg := zeroEffects()
	cfg.GlowIntensity = 2
	chain := NewEffectChain(5, 5)
	grid := NewGrid(5, 5)
	grid.Set(2, 2, Cell{Ch: '#', Fg: RGB{255, 255, 255}})

	feats := timeline.Features{}
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	if got := grid.At(1, 2).Fg[0]; got == 0 {
		t.Fatal("glow did not reach the left neighbor")
	}
	if got := grid.At(1, 1).Fg[0]; got != 0 {
		t.Fatal("glow leaked to a diagonal neighbor")
	}
}

func TestTemporalStabilityKeepsSimilarChar(t *testing.T) {
	cfg := zeroEffects()
	cfg.TemporalStability = 1
	chain := NewEffectChain(2, 1)

	grid := NewGrid(2, 1)
	grid.Set(0, 0, Cell{Ch: 'a', Fg: RGB{10, 10, 10}})
	grid.Set(1, 0, Cell{Ch: 'b', Fg: RGB{10, 10, 10}})
	feats := timeline.Features{}
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	// Second frame flickers 'a'→'b': densities are close, so the previous
	// character must win.
	grid.Set(0, 0, Cell{Ch: 'b', Fg: RGB{20, 20, 20}})
	chain.Apply(grid, &cfg, &feats, 1.0/30, lutDensity)

	if got := grid.At(0, 0).Ch; got != 'a' {
		t.Fatalf("temporal stability kept %q, want 'a'", got)
	}
	if got := grid.At(0, 0).Fg[0]; got != 20 {
		t.Fatalf("colors must pass through, fg = %d", got)
	}
}
