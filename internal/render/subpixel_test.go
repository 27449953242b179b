package render

import (
	"math/bits"
	"testing"
)

func TestBrailleEncodeExtremes(t *testing.T) {
	if got := brailleChar(0); got != 0x2800 {
		t.Fatalf("empty braille = %U, want U+2800", got)
	}
	if got := brailleChar(0xFF); got != 0x28FF {
		t.Fatalf("full braille = %U, want U+28FF", got)
	}
}

func TestBraillePermutation(t *testing.T) {
	// Top-left sub-pixel (row 0, col 0) is dot 1.
	if got := brailleChar(1 << 0); got != 0x2801 {
		t.Fatalf("TL dot = %U, want U+2801", got)
	}
	// Top-right (row 0, col 1) is dot 4 (bit 3).
	if got := brailleChar(1 << 1); got != 0x2808 {
		t.Fatalf("TR dot = %U, want U+2808", got)
	}
	// Bottom-left (row 3, col 0) is dot 7 (bit 6).
	if got := brailleChar(1 << 6); got != 0x2840 {
		t.Fatalf("BL dot = %U, want U+2840", got)
	}
	// Bottom-right (row 3, col 1) is dot 8 (bit 7).
	if got := brailleChar(1 << 7); got != 0x2880 {
		t.Fatalf("BR dot = %U, want U+2880", got)
	}
}

func TestQuadrantTable(t *testing.T) {
	if quadrantChars[0] != ' ' || quadrantChars[15] != '█' {
		t.Fatal("quadrant extremes wrong")
	}
	if quadrantChars[0b0011] != '▀' {
		t.Fatalf("top half = %q, want '▀'", quadrantChars[0b0011])
	}
	if quadrantChars[0b1100] != '▄' {
		t.Fatalf("bottom half = %q, want '▄'", quadrantChars[0b1100])
	}
}

func TestSextantCheckerboardFallback(t *testing.T) {
	if sextantChars[21] != '▒' || sextantChars[42] != '▒' {
		t.Fatalf("sextant checkerboards = %q %q, want '▒'", sextantChars[21], sextantChars[42])
	}
	if sextantChars[0] != ' ' || sextantChars[63] != '█' {
		t.Fatal("sextant extremes wrong")
	}
}

func TestOctantQuadrantPromotion(t *testing.T) {
	// Masks whose rows pair into quadrants use Block Elements.
	cases := map[uint8]rune{
		0x00: ' ',
		0xFF: '█',
		0x05: '▘', // top-left quadrant: bits 0 and 2
		0x0F: '▀', // top half
		0xF0: '▄', // bottom half
		0x55: '▌', // left half
		0xAA: '▐', // right half
	}
	for mask, want := range cases {
		if got := octantChars[mask]; got != want {
			t.Errorf("octant %#02x = %q, want %q", mask, got, want)
		}
	}
	// Non-quadrant masks land in the dedicated octant range.
	if got := octantChars[0x01]; got < 0x1CD00 || got > 0x1CDFF {
		t.Errorf("octant 0x01 = %U, want U+1CD00 range", got)
	}
}

func TestDensityByPopcount(t *testing.T) {
	lut := func(rune) float64 { return -1 }
	for _, mask := range []uint8{0, 0x0F, 0xFF} {
		r := brailleChar(mask)
		want := float64(bits.OnesCount8(mask)) / 8
		if got := densityOf(r, lut); got != want {
			t.Errorf("braille density %#02x = %v, want %v", mask, got, want)
		}
	}
	if got := densityOf('▄', lut); got != 0.5 {
		t.Errorf("half block density = %v, want 0.5", got)
	}
}

func TestEdgeGlyphDirections(t *testing.T) {
	cases := []struct {
		gx, gy float64
		want   rune
	}{
		{100, 10, '│'}, // horizontal gradient = vertical stroke
		{10, 100, '─'},
		{80, 80, '╲'},
		{80, -80, '╱'},
	}
	for _, c := range cases {
		if got := edgeGlyph(c.gx, c.gy, false); got != c.want {
			t.Errorf("edgeGlyph(%v, %v) = %q, want %q", c.gx, c.gy, got, c.want)
		}
	}
	if got := edgeGlyph(100, 10, true); got != '|' {
		t.Errorf("ASCII fallback = %q, want '|'", got)
	}
}

func TestBlueNoiseMatrixIsPermutation(t *testing.T) {
	seen := map[uint8]bool{}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			seen[blueNoise16[y][x]] = true
		}
	}
	if len(seen) != 256 {
		t.Fatalf("blue noise ranks cover %d values, want 256", len(seen))
	}
}

func TestShapeMatcherSolidBlocks(t *testing.T) {
	m := NewShapeMatcher(" .:-=+*#%@█")
	f := solidFrame(5, 5, 0)
	// An all-dark block binarizes to empty: nothing beats space.
	if got := m.Match(f, 0, 0, 5, 5); got != ' ' {
		t.Fatalf("dark block matched %q, want space", got)
	}
}
