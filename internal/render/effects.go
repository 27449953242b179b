package render

import (
	"math"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/timeline"
)

// maxWaveShift caps the wave distortion at 8 cells regardless of grid
// width.
const maxWaveShift = 8.0

// EffectChain applies the post-processing effects in fixed order on the
// glyph grid. All persistent state (previous grids, phases, the onset
// envelope) lives here and is dropped only by Reset.
type EffectChain struct {
	prevGrid *Grid // previous pre-fade grid for temporal stability
	postPrev *Grid // previous post-effect grid for fade trails
	havePrev bool

	wavePhase       float64
	colorPulsePhase float64
	onsetEnvelope   float64

	rowBuf        []Cell
	fgBuf         []RGB
	brightnessBuf []uint8
}

// NewEffectChain pre-allocates state for the given grid dimensions.
func NewEffectChain(w, h int) *EffectChain {
	return &EffectChain{
		prevGrid:      NewGrid(w, h),
		postPrev:      NewGrid(w, h),
		rowBuf:        make([]Cell, w),
		fgBuf:         make([]RGB, w*h),
		brightnessBuf: make([]uint8, w*h),
	}
}

// Reset drops all temporal state. The export pipeline calls it when the
// render mode changes so stale grids do not bleed across a discontinuity;
// a preset transition that keeps the render mode does not reset the chain.
func (e *EffectChain) Reset() {
	e.havePrev = false
	e.wavePhase = 0
	e.colorPulsePhase = 0
	e.onsetEnvelope = 0
	e.prevGrid.Clear()
	e.postPrev.Clear()
}

// Resize adapts the internal buffers to new grid dimensions.
func (e *EffectChain) Resize(w, h int) {
	if e.prevGrid.W == w && e.prevGrid.H == h {
		return
	}
	e.prevGrid.Resize(w, h)
	e.postPrev.Resize(w, h)
	e.rowBuf = make([]Cell, w)
	e.fgBuf = make([]RGB, w*h)
	e.brightnessBuf = make([]uint8, w*h)
	e.havePrev = false
}

// Envelope returns the current strobe envelope (for logging/UI).
func (e *EffectChain) Envelope() float64 { return e.onsetEnvelope }

// Apply mutates the grid in place. dt is the frame period in seconds;
// lutDensity resolves ASCII glyph densities for temporal stability.
func (e *EffectChain) Apply(grid *Grid, cfg *config.Render, feats *timeline.Features, dt float64, lutDensity func(rune) float64) {
	e.Resize(grid.W, grid.H)

	// Envelope bookkeeping happens every frame, effect or not.
	e.onsetEnvelope *= cfg.StrobeDecay
	if feats.Onset {
		if feats.BeatIntensity > e.onsetEnvelope {
			e.onsetEnvelope = feats.BeatIntensity
		}
	}
	if cfg.ColorPulseSpeed > 0 {
		e.colorPulsePhase += cfg.ColorPulseSpeed * dt
		e.colorPulsePhase -= math.Floor(e.colorPulsePhase)
	} else {
		e.colorPulsePhase = 0
	}
	if cfg.WaveAmplitude > 0.001 {
		e.wavePhase = math.Mod(e.wavePhase+cfg.WaveSpeed*dt, 2*math.Pi)
	}

	if e.havePrev && cfg.TemporalStability > 0.001 {
		e.temporalStability(grid, cfg.TemporalStability, lutDensity)
	}

	if cfg.WaveAmplitude > 0.001 {
		phase := e.wavePhase + feats.BeatPhase*2*math.Pi*0.5
		e.wave(grid, cfg.WaveAmplitude, cfg.WaveSpeed, phase)
	}

	if cfg.ChromaticOffset >= 0.01 && cfg.ColorEnabled {
		e.chromaticAberration(grid, cfg.ChromaticOffset)
	}

	if e.colorPulsePhase > 0.001 {
		e.colorPulse(grid, e.colorPulsePhase)
	}

	// prevGrid snapshots the stabilized pre-fade grid for the next frame's
	// temporal pass.
	e.prevGrid.CopyFrom(grid)

	if cfg.FadeDecay >= 0.01 && e.havePrev {
		e.fadeTrails(grid, cfg.FadeDecay, lutDensity)
	}

	if e.onsetEnvelope > 0.001 && cfg.BeatFlashIntensity > 0.001 {
		e.strobe(grid, e.onsetEnvelope*cfg.BeatFlashIntensity)
	}

	if cfg.ScanlineGap > 0 {
		e.scanLines(grid, cfg.ScanlineGap, cfg.ScanlineDarken)
	}

	if cfg.GlowIntensity >= 0.01 {
		e.glow(grid, cfg.GlowIntensity)
	}

	e.postPrev.CopyFrom(grid)
	e.havePrev = true
}

// temporalStability keeps the previous frame's character when the density
// change is minor and both glyphs share a topology class. Colors always
// pass through.
func (e *EffectChain) temporalStability(grid *Grid, threshold float64, lutDensity func(rune) float64) {
	t := threshold * 0.3
	for i := range grid.Cells {
		cur := &grid.Cells[i]
		prev := &e.prevGrid.Cells[i]
		if cur.Ch == ' ' || prev.Ch == ' ' || cur.Ch == prev.Ch {
			continue
		}
		if classOf(cur.Ch) != classOf(prev.Ch) {
			continue
		}
		dc := densityOf(cur.Ch, lutDensity)
		dp := densityOf(prev.Ch, lutDensity)
		if math.Abs(dc-dp) < t {
			cur.Ch = prev.Ch
		}
	}
}

// wave shifts each row horizontally by a sinusoid of the row index; rows
// wrap around.
func (e *EffectChain) wave(grid *Grid, amplitude, freq, phase float64) {
	w := grid.W
	if w == 0 || grid.H == 0 {
		return
	}
	hf := float64(grid.H)
	for y := 0; y < grid.H; y++ {
		shift := int(math.Round(amplitude * math.Sin(phase+2*math.Pi*freq*float64(y)/hf) * maxWaveShift))
		if shift%w == 0 {
			continue
		}
		row := grid.Cells[y*w : (y+1)*w]
		copy(e.rowBuf[:w], row)
		for x := 0; x < w; x++ {
			src := ((x-shift)%w + w) % w
			row[x] = e.rowBuf[src]
		}
	}
}

// chromaticAberration borrows the R channel from +offset cells away and
// the B channel from -offset cells, clamping at row boundaries.
func (e *EffectChain) chromaticAberration(grid *Grid, offset float64) {
	shift := int(math.Ceil(offset))
	w := grid.W
	for i, c := range grid.Cells {
		e.fgBuf[i] = c.Fg
	}
	for y := 0; y < grid.H; y++ {
		base := y * w
		for x := 0; x < w; x++ {
			rx := clampInt(x+shift, 0, w-1)
			bx := clampInt(x-shift, 0, w-1)
			cell := &grid.Cells[base+x]
			cell.Fg[0] = e.fgBuf[base+rx][0]
			cell.Fg[2] = e.fgBuf[base+bx][2]
		}
	}
}

// colorPulse rotates the hue of every non-black foreground.
func (e *EffectChain) colorPulse(grid *Grid, hueShift float64) {
	for i := range grid.Cells {
		cell := &grid.Cells[i]
		if cell.Ch == ' ' || cell.Fg == Black {
			continue
		}
		h, s, v := RGBToHSV(cell.Fg[0], cell.Fg[1], cell.Fg[2])
		h += hueShift
		h -= math.Floor(h)
		cell.Fg[0], cell.Fg[1], cell.Fg[2] = HSVToRGB(h, s, v)
	}
}

// fadeTrails blends the grid with the previous post-effect grid. The
// denser character survives; colors lerp channel-wise toward the ghost.
func (e *EffectChain) fadeTrails(grid *Grid, decay float64, lutDensity func(rune) float64) {
	d := clampf(decay, 0, 0.99)
	for i := range grid.Cells {
		cur := &grid.Cells[i]
		prev := &e.postPrev.Cells[i]
		if prev.Ch == ' ' && cur.Ch == ' ' {
			continue
		}
		if densityOf(prev.Ch, lutDensity) > densityOf(cur.Ch, lutDensity) {
			cur.Ch = prev.Ch
		}
		for ch := 0; ch < 3; ch++ {
			cur.Fg[ch] = lerpByte(cur.Fg[ch], prev.Fg[ch], d)
			cur.Bg[ch] = lerpByte(cur.Bg[ch], prev.Bg[ch], d)
		}
	}
}

// strobe adds a flat brightness delta to every fg and bg channel.
func (e *EffectChain) strobe(grid *Grid, delta float64) {
	boost := int(delta * 255)
	if boost <= 0 {
		return
	}
	for i := range grid.Cells {
		cell := &grid.Cells[i]
		for ch := 0; ch < 3; ch++ {
			cell.Fg[ch] = addByte(cell.Fg[ch], boost)
			cell.Bg[ch] = addByte(cell.Bg[ch], boost)
		}
	}
}

// scanLines darkens every (gap+1)-th row.
func (e *EffectChain) scanLines(grid *Grid, gap int, darken float64) {
	factor := 0.3*(1-darken) + darken
	w := grid.W
	for y := 0; y < grid.H; y++ {
		if y%(gap+1) != 0 {
			continue
		}
		row := grid.Cells[y*w : (y+1)*w]
		for i := range row {
			for ch := 0; ch < 3; ch++ {
				row[i].Fg[ch] = uint8(float64(row[i].Fg[ch]) * factor)
				row[i].Bg[ch] = uint8(float64(row[i].Bg[ch]) * factor)
			}
		}
	}
}

// glow spreads brightness from hot cells (max fg channel > 140) to their
// four cardinal neighbors.
func (e *EffectChain) glow(grid *Grid, intensity float64) {
	w, h := grid.W, grid.H
	boost := int(intensity * 40)
	if boost <= 0 || w == 0 || h == 0 {
		return
	}

	for i, c := range grid.Cells {
		m := c.Fg[0]
		if c.Fg[1] > m {
			m = c.Fg[1]
		}
		if c.Fg[2] > m {
			m = c.Fg[2]
		}
		e.brightnessBuf[i] = m
	}

	bump := func(x, y int) {
		if x < 0 || y < 0 || x >= w || y >= h {
			return
		}
		cell := &grid.Cells[y*w+x]
		for ch := 0; ch < 3; ch++ {
			cell.Fg[ch] = addByte(cell.Fg[ch], boost)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if e.brightnessBuf[y*w+x] <= 140 {
				continue
			}
			bump(x-1, y)
			bump(x+1, y)
			bump(x, y-1)
			bump(x, y+1)
		}
	}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t + 0.5)
}

func addByte(v uint8, delta int) uint8 {
	r := int(v) + delta
	if r > 255 {
		return 255
	}
	return uint8(r)
}
