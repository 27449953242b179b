// Package export turns glyph grids into RGB pixel frames and feeds them to
// the downstream encoder.
package export

import (
	"fmt"
	"image"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/errs"
	"github.com/mvasseur/asciibeat/internal/render"
)

// Combining diacritic subsets used for the Zalgo effect.
var (
	zalgoAbove = []rune{0x0300, 0x0301, 0x0302, 0x0303, 0x0306, 0x0307, 0x0308, 0x030A, 0x030B, 0x030C, 0x0313}
	zalgoBelow = []rune{0x0316, 0x0317, 0x0318, 0x0319, 0x031C, 0x031D, 0x0323, 0x0324, 0x0325, 0x0330, 0x0331}
)

// defaultFontPaths is probed when no font is supplied.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/TTF/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
	"/usr/share/fonts/truetype/freefont/FreeMono.ttf",
	"/Library/Fonts/Andale Mono.ttf",
	"C:\\Windows\\Fonts\\consola.ttf",
}

// FindFont returns the first usable monospace font on the system.
func FindFont() (string, error) {
	for _, p := range defaultFontPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errs.Configf("no monospace font found; pass one explicitly")
}

// Rasterizer converts a glyph grid plus per-cell colors into an RGB pixel
// buffer. Every glyph the pipeline can emit is pre-rendered to an alpha
// bitmap at construction; the per-frame path only blits.
type Rasterizer struct {
	cellW int
	cellH int

	glyphs map[rune][]uint8

	// sRGB↔linear lookup tables for Oklab-mode blending.
	toLinear   [256]float64
	fromLinear [4096]uint8
}

// NewRasterizer loads a TTF font and pre-caches alpha bitmaps for the
// ASCII range, every built-in charset, all sub-pixel topology LUTs and the
// Zalgo combining marks. scale is the font size in pixels; the cell height
// is the font's line height at that size and the cell width the advance of
// 'M'.
func NewRasterizer(fontPath string, scale float64) (*Rasterizer, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, errs.NotFound(fontPath)
	}
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, errs.Configf("parsing font %s: %v", fontPath, err)
	}
	if scale < 4 {
		scale = 4
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errs.Configf("sizing font %s: %v", fontPath, err)
	}
	defer face.Close()

	metrics := face.Metrics()
	cellH := metrics.Height.Ceil()
	adv, ok := face.GlyphAdvance('M')
	if !ok {
		return nil, errs.Configf("font %s has no 'M' glyph", fontPath)
	}
	cellW := adv.Ceil()
	if cellW < 1 || cellH < 1 {
		return nil, errs.Dimensions(cellW, cellH)
	}

	r := &Rasterizer{
		cellW:  cellW,
		cellH:  cellH,
		glyphs: make(map[rune][]uint8, 1024),
	}

	ascent := metrics.Ascent
	var sfntBuf sfnt.Buffer

	cacheRange := func(lo, hi rune) {
		for cp := lo; cp <= hi; cp++ {
			r.cacheGlyph(ft, &sfntBuf, face, ascent, cp)
		}
	}
	cacheRange(0x20, 0x7E)   // ASCII
	cacheRange(0xA0, 0xFF)   // Latin-1 supplement (charset extras)
	cacheRange(0x2500, 0x257F) // box drawing (edge glyphs)
	cacheRange(0x2580, 0x259F) // block elements
	cacheRange(0x2800, 0x28FF) // Braille
	cacheRange(0x1FB00, 0x1FB3B) // sextants
	cacheRange(0x1CD00, 0x1CDFF) // octants (skipped silently if absent)
	cacheRange(0x0300, 0x036F)   // combining marks for Zalgo
	for _, cs := range config.CharsetPool {
		for _, cp := range cs {
			r.cacheGlyph(ft, &sfntBuf, face, ascent, cp)
		}
	}

	for i := range r.toLinear {
		c := float64(i) / 255
		if c <= 0.04045 {
			r.toLinear[i] = c / 12.92
		} else {
			r.toLinear[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
	for i := range r.fromLinear {
		c := float64(i) / 4095
		var s float64
		if c <= 0.0031308 {
			s = c * 12.92
		} else {
			s = 1.055*math.Pow(c, 1/2.4) - 0.055
		}
		r.fromLinear[i] = uint8(s*255 + 0.5)
	}

	return r, nil
}

// cacheGlyph renders one rune into a cell-sized alpha bitmap. Glyphs the
// font lacks (index 0, .notdef) are not cached; the rasterizer skips them
// at blit time, leaving the background visible.
func (r *Rasterizer) cacheGlyph(ft *sfnt.Font, buf *sfnt.Buffer, face font.Face, ascent fixed.Int26_6, cp rune) {
	if _, cached := r.glyphs[cp]; cached {
		return
	}
	if idx, err := ft.GlyphIndex(buf, cp); err != nil || idx == 0 {
		return
	}
	dot := fixed.Point26_6{X: 0, Y: ascent}
	dr, mask, maskp, _, ok := face.Glyph(dot, cp)
	if !ok {
		return
	}

	bitmap := make([]uint8, r.cellW*r.cellH)
	alpha, isAlpha := mask.(*image.Alpha)
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		if y < 0 || y >= r.cellH {
			continue
		}
		for x := dr.Min.X; x < dr.Max.X; x++ {
			if x < 0 || x >= r.cellW {
				continue
			}
			sx := maskp.X + (x - dr.Min.X)
			sy := maskp.Y + (y - dr.Min.Y)
			var a uint8
			if isAlpha {
				a = alpha.Pix[(sy-alpha.Rect.Min.Y)*alpha.Stride+(sx-alpha.Rect.Min.X)]
			} else {
				_, _, _, av := mask.At(sx, sy).RGBA()
				a = uint8(av >> 8)
			}
			bitmap[y*r.cellW+x] = a
		}
	}
	r.glyphs[cp] = bitmap
}

// CellSize returns the pixel dimensions of one glyph cell.
func (r *Rasterizer) CellSize() (int, int) {
	return r.cellW, r.cellH
}

// TargetDimensions returns the pixel dimensions of the raster output for a
// grid.
func (r *Rasterizer) TargetDimensions(gridW, gridH int) (int, int) {
	return gridW * r.cellW, gridH * r.cellH
}

// Render draws the grid into the RGB output buffer (3 bytes per pixel,
// row-major). zalgo > 0 stacks deterministic combining marks; frameIdx
// seeds the per-cell mark selection so runs are reproducible. linearBlend
// selects linear-light compositing (Oklab color mode).
func (r *Rasterizer) Render(grid *render.Grid, zalgo float64, frameIdx int, linearBlend bool, out []uint8) error {
	outW := grid.W * r.cellW
	outH := grid.H * r.cellH
	if len(out) < outW*outH*3 {
		return fmt.Errorf("%w: raster buffer %d for %dx%d", errs.InvalidDimensions, len(out), outW, outH)
	}

	stride := outW * 3
	marks := int(zalgo * 3)
	if marks > 8 {
		marks = 8
	}

	for gy := 0; gy < grid.H; gy++ {
		for gx := 0; gx < grid.W; gx++ {
			cell := grid.At(gx, gy)
			glyph := r.glyphs[cell.Ch]

			// Deterministic per-cell LCG for Zalgo mark selection.
			seed := uint32(frameIdx)*2654435761 + uint32(gy*grid.W+gx)*1013904223 + 12345
			next := func() uint32 {
				seed = seed*1664525 + 1013904223
				return seed
			}

			var overlays [8][]uint8
			overlayCount := 0
			if marks > 0 && cell.Ch != ' ' {
				n := int(next()%uint32(marks)) + 1
				for i := 0; i < n && overlayCount < len(overlays); i++ {
					var cp rune
					if next()%2 == 0 {
						cp = zalgoAbove[next()%uint32(len(zalgoAbove))]
					} else {
						cp = zalgoBelow[next()%uint32(len(zalgoBelow))]
					}
					if g := r.glyphs[cp]; g != nil {
						overlays[overlayCount] = g
						overlayCount++
					}
				}
			}

			baseX := gx * r.cellW
			baseY := gy * r.cellH
			for cy := 0; cy < r.cellH; cy++ {
				rowOff := (baseY+cy)*stride + baseX*3
				for cx := 0; cx < r.cellW; cx++ {
					var a uint8
					if glyph != nil {
						a = glyph[cy*r.cellW+cx]
					}
					for i := 0; i < overlayCount; i++ {
						if ov := overlays[i][cy*r.cellW+cx]; ov > a {
							a = ov
						}
					}

					off := rowOff + cx*3
					if a == 0 {
						out[off] = cell.Bg[0]
						out[off+1] = cell.Bg[1]
						out[off+2] = cell.Bg[2]
						continue
					}
					if a == 255 {
						out[off] = cell.Fg[0]
						out[off+1] = cell.Fg[1]
						out[off+2] = cell.Fg[2]
						continue
					}

					af := float64(a) / 255
					for ch := 0; ch < 3; ch++ {
						out[off+ch] = r.blend(cell.Fg[ch], cell.Bg[ch], af, linearBlend)
					}
				}
			}
		}
	}
	return nil
}

// blend alpha-composites fg over bg for one channel, in linear light when
// requested and in sRGB space otherwise.
func (r *Rasterizer) blend(fg, bg uint8, alpha float64, linear bool) uint8 {
	if !linear {
		return uint8(float64(fg)*alpha + float64(bg)*(1-alpha) + 0.5)
	}
	lf := r.toLinear[fg]
	lb := r.toLinear[bg]
	v := lf*alpha + lb*(1-alpha)
	idx := int(v*4095 + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx > 4095 {
		idx = 4095
	}
	return r.fromLinear[idx]
}
