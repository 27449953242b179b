package render

import (
	"log"

	"github.com/mvasseur/asciibeat/internal/config"
)

// GridSize derives glyph-grid dimensions from the target output pixel
// dimensions, the density scale and the aspect ratio. The aspect factor
// squashes the vertical cell count to compensate for tall terminal cells.
func GridSize(targetW, targetH int, cfg *config.Render) (int, int) {
	const baseCell = 8.0
	gw := int(float64(targetW) / baseCell * cfg.DensityScale)
	gh := int(float64(targetH) / (baseCell * cfg.AspectRatio) * cfg.DensityScale)
	if gw < 1 {
		gw = 1
	}
	if gh < 1 {
		gh = 1
	}
	return gw, gh
}

// SourceSize returns the pixel dimensions the source frame should be
// resized to for a given grid and render mode.
func SourceSize(gridW, gridH int, mode config.RenderMode) (int, int) {
	sw, sh := mode.SubPixels()
	return gridW * sw, gridH * sh
}

// Compositor converts a pixel frame into a glyph grid. LUTs and the shape
// matcher are rebuilt only when the charset changes.
type Compositor struct {
	lut         *config.LuminanceLUT
	matcher     *ShapeMatcher
	shapeWarned bool

	// refDensity is the density scale the grid was sized for. A lower
	// per-frame density cannot shrink the grid mid-export (the encoder
	// dimensions are fixed), so it coarsens sampling instead: cells are
	// quantized into blocks, pixelating the output.
	refDensity float64
	step       int
}

// NewCompositor creates a compositor for the given charset.
func NewCompositor(charset string) *Compositor {
	return &Compositor{
		lut:        config.NewLuminanceLUT(charset),
		matcher:    NewShapeMatcher(charset),
		refDensity: 1,
		step:       1,
	}
}

// SetReferenceDensity records the density scale the grid dimensions were
// derived from.
func (c *Compositor) SetReferenceDensity(d float64) {
	if d > 0 {
		c.refDensity = d
	}
}

// quant maps a cell index to its block anchor under the current density
// step.
func (c *Compositor) quant(i int) int {
	if c.step <= 1 {
		return i
	}
	return i / c.step * c.step
}

// LUT exposes the current luminance table (the effect chain needs glyph
// densities).
func (c *Compositor) LUT() *config.LuminanceLUT {
	return c.lut
}

// UpdateCharset rebuilds the LUT and shape tables if the charset changed.
func (c *Compositor) UpdateCharset(charset string) {
	if c.lut.Charset() != charset {
		c.lut = config.NewLuminanceLUT(charset)
		c.matcher = NewShapeMatcher(charset)
	}
}

// Process writes every cell of the grid from the frame under the given
// configuration. Deterministic and allocation-free.
func (c *Compositor) Process(f *Frame, cfg *config.Render, grid *Grid) {
	c.UpdateCharset(cfg.Charset)

	c.step = 1
	if cfg.DensityScale > 0 && cfg.DensityScale < c.refDensity {
		c.step = int(c.refDensity/cfg.DensityScale + 0.5)
		if c.step < 1 {
			c.step = 1
		}
	}

	switch cfg.RenderMode {
	case config.ModeHalfBlock:
		c.processHalfBlock(f, cfg, grid)
	case config.ModeBraille:
		c.processBits(f, cfg, grid, 2, 4, brailleGlyph)
	case config.ModeQuadrant:
		c.processBits(f, cfg, grid, 2, 2, quadrantGlyph)
	case config.ModeSextant:
		c.processBits(f, cfg, grid, 2, 3, sextantGlyph)
	case config.ModeOctant:
		c.processBits(f, cfg, grid, 2, 4, octantGlyph)
	default:
		c.processAscii(f, cfg, grid)
	}

	c.applyBackground(f, cfg, grid)
}

// processAscii runs the luminance → dither → edge → shape pipeline.
func (c *Compositor) processAscii(f *Frame, cfg *config.Render, grid *Grid) {
	shape := cfg.ShapeMatching
	if shape && grid.W*grid.H > ShapeMatchCellLimit {
		if !c.shapeWarned {
			log.Printf("render: shape matching disabled (%d cells > %d)", grid.W*grid.H, ShapeMatchCellLimit)
			c.shapeWarned = true
		}
		shape = false
	}

	edgeOn := cfg.EdgeThreshold > 0 && cfg.EdgeMix > 0
	asciiOnly := isASCIICharset(cfg.Charset)
	cellW := maxInt(f.W/maxInt(grid.W, 1), 1)
	cellH := maxInt(f.H/maxInt(grid.H, 1), 1)

	for cy := 0; cy < grid.H; cy++ {
		for cx := 0; cx < grid.W; cx++ {
			px := clampInt(c.quant(cx)*f.W/maxInt(grid.W, 1), 0, f.W-1)
			py := clampInt(c.quant(cy)*f.H/maxInt(grid.H, 1), 0, f.H-1)

			lum := f.Luminance(px, py)
			if cfg.Invert {
				lum = 255 - lum
			}
			lum = adjust(lum, cfg.Contrast, cfg.Brightness)
			lumFrac := float64(lum) / 255

			dithered := ditherLuminance(lum, cx, cy, c.lut.Len(), cfg.DitherMode)
			ch := c.lut.Map(dithered)

			edged := false
			if edgeOn {
				gx, gy := sobel(f, px, py)
				if mag := edgeMagnitude(gx, gy); mag >= cfg.EdgeThreshold {
					if cfg.EdgeMix >= 1 || lumFrac < cfg.EdgeMix {
						ch = edgeGlyph(gx, gy, asciiOnly)
						edged = true
					}
				}
			}
			if shape && !edged {
				ch = c.matcher.Match(f, cx*cellW, cy*cellH, cellW, cellH)
			}

			r, g, b, _ := f.At(px, py)
			cell := grid.At(cx, cy)
			cell.Ch = ch
			cell.Fg = c.cellColor(r, g, b, lum, cfg)
			cell.Bg = Black
		}
	}
}

// processHalfBlock packs two vertical pixels per cell: top colors the
// background, bottom the foreground, character is always '▄'.
func (c *Compositor) processHalfBlock(f *Frame, cfg *config.Render, grid *Grid) {
	for cy := 0; cy < grid.H; cy++ {
		for cx := 0; cx < grid.W; cx++ {
			px := clampInt(c.quant(cx)*f.W/maxInt(grid.W, 1), 0, f.W-1)
			pyTop := clampInt(c.quant(cy)*2*f.H/maxInt(grid.H*2, 1), 0, f.H-1)
			pyBot := clampInt((c.quant(cy)*2+1)*f.H/maxInt(grid.H*2, 1), 0, f.H-1)

			tr, tg, tb, _ := f.At(px, pyTop)
			br, bg, bb, _ := f.At(px, pyBot)

			cell := grid.At(cx, cy)
			cell.Ch = '▄'
			cell.Fg = c.cellColor(br, bg, bb, f.Luminance(px, pyBot), cfg)
			cell.Bg = c.cellColor(tr, tg, tb, f.Luminance(px, pyTop), cfg)
		}
	}
}

// glyphFor converts an N-bit sub-pixel mask into the mode's glyph.
type glyphFor func(mask uint8) rune

func brailleGlyph(mask uint8) rune  { return brailleChar(mask) }
func quadrantGlyph(mask uint8) rune { return quadrantChars[mask&0x0F] }
func sextantGlyph(mask uint8) rune  { return sextantChars[mask&0x3F] }
func octantGlyph(mask uint8) rune   { return octantChars[mask] }

// processBits runs the generic sub-pixel topology path: quantize cols×rows
// sub-pixels by luminance threshold and index the mode's glyph table.
// Sextant mode thresholds against the local mean, the others against 128.
func (c *Compositor) processBits(f *Frame, cfg *config.Render, grid *Grid, cols, rows int, glyph glyphFor) {
	pixelW := maxInt(grid.W*cols, 1)
	pixelH := maxInt(grid.H*rows, 1)
	n := cols * rows
	adaptive := cfg.RenderMode == config.ModeSextant

	var lums [8]uint8
	var colors [8][3]uint32

	for cy := 0; cy < grid.H; cy++ {
		for cx := 0; cx < grid.W; cx++ {
			lumSum := 0
			for dy := 0; dy < rows; dy++ {
				for dx := 0; dx < cols; dx++ {
					px := clampInt((c.quant(cx)*cols+dx)*f.W/pixelW, 0, f.W-1)
					py := clampInt((c.quant(cy)*rows+dy)*f.H/pixelH, 0, f.H-1)
					i := dy*cols + dx
					lums[i] = f.Luminance(px, py)
					lumSum += int(lums[i])
					r, g, b, _ := f.At(px, py)
					colors[i] = [3]uint32{uint32(r), uint32(g), uint32(b)}
				}
			}

			threshold := uint8(128)
			if adaptive {
				threshold = uint8(lumSum / n)
			}

			var mask uint8
			var litR, litG, litB, lit uint32
			var offR, offG, offB, off uint32
			for i := 0; i < n; i++ {
				on := lums[i] > threshold
				if cfg.Invert {
					on = lums[i] < threshold
				}
				if on {
					mask |= 1 << uint(i)
					litR += colors[i][0]
					litG += colors[i][1]
					litB += colors[i][2]
					lit++
				} else {
					offR += colors[i][0]
					offG += colors[i][1]
					offB += colors[i][2]
					off++
				}
			}

			cell := grid.At(cx, cy)
			cell.Ch = glyph(mask)

			var fr, fg, fb uint8
			if lit > 0 {
				fr, fg, fb = uint8(litR/lit), uint8(litG/lit), uint8(litB/lit)
			} else {
				fr, fg, fb = uint8(offR/off), uint8(offG/off), uint8(offB/off)
			}
			avgLum := uint8(lumSum / n)
			cell.Fg = c.cellColor(fr, fg, fb, avgLum, cfg)

			if cfg.RenderMode == config.ModeQuadrant && off > 0 && lit > 0 {
				cell.Bg = c.cellColor(uint8(offR/off), uint8(offG/off), uint8(offB/off), avgLum, cfg)
			} else {
				cell.Bg = Black
			}
		}
	}
}

// cellColor maps a source color through the color mode, contrast and
// brightness. With color disabled, the grayscale of the luminance is used.
func (c *Compositor) cellColor(r, g, b, lum uint8, cfg *config.Render) RGB {
	if !cfg.ColorEnabled {
		v := adjust(lum, cfg.Contrast, cfg.Brightness)
		return RGB{v, v, v}
	}
	mr, mg, mb := MapColor(r, g, b, cfg.ColorMode, cfg.Saturation)
	return RGB{
		adjust(mr, cfg.Contrast, cfg.Brightness),
		adjust(mg, cfg.Contrast, cfg.Brightness),
		adjust(mb, cfg.Contrast, cfg.Brightness),
	}
}

// applyBackground fills cell backgrounds per the configured style.
// HalfBlock and Quadrant keep their two-color packing except under
// SourceDim, which overrides everything.
func (c *Compositor) applyBackground(f *Frame, cfg *config.Render, grid *Grid) {
	switch cfg.BgStyle {
	case config.BgSourceDim:
		for cy := 0; cy < grid.H; cy++ {
			for cx := 0; cx < grid.W; cx++ {
				px := clampInt(cx*f.W/maxInt(grid.W, 1), 0, f.W-1)
				py := clampInt(cy*f.H/maxInt(grid.H, 1), 0, f.H-1)
				r, g, b, _ := f.At(px, py)
				grid.At(cx, cy).Bg = RGB{r / 4, g / 4, b / 4}
			}
		}
	case config.BgBlack, config.BgTransparent:
		// Cells already default to black; Transparent uses the same
		// all-zero sentinel and is not treated differently downstream: the
		// rasterizer draws it as a black background.
	}
}

// isASCIICharset reports whether every rune is 7-bit, forcing the ASCII
// edge glyph fallback.
func isASCIICharset(charset string) bool {
	for _, r := range charset {
		if r > 127 {
			return false
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
