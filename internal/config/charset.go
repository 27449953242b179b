package config

// Built-in charsets, ordered lightest→densest. The mutation pool cycles
// through all eleven.

// CharsetFull is the Paul Bourke ramp without its backslash (69 characters).
const CharsetFull = " .'`^\",:;Il!i><~+_-?][}{1)(|/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

// CharsetDense keeps only strongly-covering glyphs.
const CharsetDense = " .,:;ox%#@Ñ"

// CharsetShort1 is the classic compact ten-step ramp.
const CharsetShort1 = " .:-=+*#%@"

// CharsetShort2 is a rounded six-step ramp.
const CharsetShort2 = " .oO0@"

// CharsetEdge favors strokes over fills.
const CharsetEdge = " -|/\\+*#"

// CharsetGlitch mixes marks of uneven visual weight.
const CharsetGlitch = " `'-:°=#%@"

// CharsetDiscrete uses the four shade blocks.
const CharsetDiscrete = " ░▒▓█"

// CharsetDigital is a numeric ramp.
const CharsetDigital = " .:107#@"

// CharsetBinary is the two-state extreme.
const CharsetBinary = " █"

// CharsetExtended is the Bourke ramp extended with shade blocks.
const CharsetExtended = CharsetFull + "░▒▓█"

// CharsetHires blends the compact ramp into shade blocks.
const CharsetHires = " .:-=+*#%@░▒▓█"

// CharsetPool is the fixed rotation pool used by the charset mutation.
var CharsetPool = [11]string{
	CharsetFull,
	CharsetDense,
	CharsetShort1,
	CharsetShort2,
	CharsetEdge,
	CharsetGlitch,
	CharsetDiscrete,
	CharsetDigital,
	CharsetBinary,
	CharsetExtended,
	CharsetHires,
}

// LuminanceLUT maps a luminance byte to a charset rune in O(1).
//
// Rebuilt only when the charset changes; never in the per-frame path.
type LuminanceLUT struct {
	lut     [256]rune
	density map[rune]float64
	charset string
	length  int
}

// NewLuminanceLUT builds the table for a charset ordered lightest→densest.
// Charsets shorter than two runes fall back to " @".
func NewLuminanceLUT(charset string) *LuminanceLUT {
	runes := []rune(charset)
	if len(runes) < 2 {
		charset = " @"
		runes = []rune(charset)
	}
	l := &LuminanceLUT{
		charset: charset,
		length:  len(runes),
		density: make(map[rune]float64, len(runes)),
	}
	for i := 0; i < 256; i++ {
		// Round to the nearest charset index.
		l.lut[i] = runes[(i*(len(runes)-1)+127)/255]
	}
	for i, r := range runes {
		// First occurrence wins for repeated runes.
		if _, ok := l.density[r]; !ok {
			l.density[r] = float64(i) / float64(len(runes)-1)
		}
	}
	return l
}

// Map returns the rune for a luminance value.
func (l *LuminanceLUT) Map(lum uint8) rune {
	return l.lut[lum]
}

// Charset returns the charset the table was built from.
func (l *LuminanceLUT) Charset() string {
	return l.charset
}

// Len returns the charset rune count.
func (l *LuminanceLUT) Len() int {
	return l.length
}

// Density returns the visual-density fraction of a rune: its index over the
// last index (0 for the first rune, 1 for the last). Returns -1 for runes
// not in the charset.
func (l *LuminanceLUT) Density(r rune) float64 {
	if d, ok := l.density[r]; ok {
		return d
	}
	return -1
}
