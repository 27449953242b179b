package render

// Directional edge glyphs by dominant gradient axis, plus the ASCII-only
// fallback set.
var (
	edgeGlyphs      = [4]rune{'│', '─', '╲', '╱'}
	edgeGlyphsASCII = [4]rune{'|', '-', '\\', '/'}
)

// sobel computes the 3×3 Sobel gradient of the luminance at (x, y).
// Border pixels report zero gradient.
func sobel(f *Frame, x, y int) (gx, gy float64) {
	if x <= 0 || y <= 0 || x >= f.W-1 || y >= f.H-1 {
		return 0, 0
	}
	tl := float64(f.Luminance(x-1, y-1))
	tc := float64(f.Luminance(x, y-1))
	tr := float64(f.Luminance(x+1, y-1))
	ml := float64(f.Luminance(x-1, y))
	mr := float64(f.Luminance(x+1, y))
	bl := float64(f.Luminance(x-1, y+1))
	bc := float64(f.Luminance(x, y+1))
	br := float64(f.Luminance(x+1, y+1))

	gx = -tl + tr - 2*ml + 2*mr - bl + br
	gy = -tl - 2*tc - tr + bl + 2*bc + br
	return gx, gy
}

// edgeMagnitude normalizes |Gx|+|Gy| to [0,1].
func edgeMagnitude(gx, gy float64) float64 {
	m := (abs(gx) + abs(gy)) / 1020
	if m > 1 {
		return 1
	}
	return m
}

// edgeGlyph picks the directional glyph for a gradient. A strong Gx means
// a vertical stroke, a strong Gy a horizontal one; otherwise the diagonal
// follows the gradient sign.
func edgeGlyph(gx, gy float64, asciiOnly bool) rune {
	set := &edgeGlyphs
	if asciiOnly {
		set = &edgeGlyphsASCII
	}
	ax, ay := abs(gx), abs(gy)
	switch {
	case ax > 2*ay:
		return set[0]
	case ay > 2*ax:
		return set[1]
	case gx*gy >= 0:
		return set[2]
	default:
		return set[3]
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
