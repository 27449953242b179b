package render

import "math/bits"

// Sub-pixel topology glyph tables. Bit order within a cell is row-major,
// bit = dy*cols + dx, LSB first. Braille instead follows the
// standard dot permutation.

// quadrantChars maps a 2×2 bitmask (bit0=TL, bit1=TR, bit2=BL, bit3=BR) to
// a block element.
var quadrantChars = [16]rune{
	' ', '▘', '▝', '▀', '▖', '▌', '▞', '▛', '▗', '▚', '▐', '▜', '▄', '▙', '▟', '█',
}

// sextantChars maps a 2×3 bitmask to the U+1FB00 legacy-computing range.
// Masks 21 and 42 (the full left and right columns) have no codepoint in
// the sextant range and fall back to U+2592 MEDIUM SHADE.
var sextantChars = [64]rune{
	' ', '\U0001FB00', '\U0001FB01', '\U0001FB02', '\U0001FB03', '\U0001FB04', '\U0001FB05', '\U0001FB06',
	'\U0001FB07', '\U0001FB08', '\U0001FB09', '\U0001FB0A', '\U0001FB0B', '\U0001FB0C', '\U0001FB0D', '\U0001FB0E',
	'\U0001FB0F', '\U0001FB10', '\U0001FB11', '\U0001FB12', '\U0001FB13', '▒', '\U0001FB14', '\U0001FB15',
	'\U0001FB16', '\U0001FB17', '\U0001FB18', '\U0001FB19', '\U0001FB1A', '\U0001FB1B', '\U0001FB1C', '\U0001FB1D',
	'\U0001FB1E', '\U0001FB1F', '\U0001FB20', '\U0001FB21', '\U0001FB22', '\U0001FB23', '\U0001FB24', '\U0001FB25',
	'\U0001FB26', '\U0001FB27', '▒', '\U0001FB28', '\U0001FB29', '\U0001FB2A', '\U0001FB2B', '\U0001FB2C',
	'\U0001FB2D', '\U0001FB2E', '\U0001FB2F', '\U0001FB30', '\U0001FB31', '\U0001FB32', '\U0001FB33', '\U0001FB34',
	'\U0001FB35', '\U0001FB36', '\U0001FB37', '\U0001FB38', '\U0001FB39', '\U0001FB3A', '\U0001FB3B', '█',
}

// Sextant bit layout note: the table above is indexed with bit = dy*2+dx
// like the other topologies. The official sextant numbering (1–2 top row,
// 3–4 middle, 5–6 bottom) is row-major as well, so the table runs in plain
// binary order with the two fallbacks slotted in.

// octantChars maps a 2×4 bitmask to a glyph. The sixteen masks whose rows
// pair up into quadrants are promoted to Block Elements (guaranteed font
// coverage); the rest pack ordinally into the U+1CD00 octant range.
// Rasterizers that lack these codepoints skip them silently.
var octantChars [256]rune

// octant reverse lookups for density estimation.
var octantBits = map[rune]int{}
var sextantBits = map[rune]int{}

func init() {
	// Quadrant promotion: each quadrant covers two octant bits.
	quadPairs := [4][2]uint{{0, 2}, {1, 3}, {4, 6}, {5, 7}}
	isQuadrant := func(mask int) (int, bool) {
		qbits := 0
		for q, pair := range quadPairs {
			a := mask&(1<<pair[0]) != 0
			b := mask&(1<<pair[1]) != 0
			if a != b {
				return 0, false
			}
			if a {
				qbits |= 1 << q
			}
		}
		return qbits, true
	}

	next := 0x1CD00
	for mask := 0; mask < 256; mask++ {
		if qbits, ok := isQuadrant(mask); ok {
			octantChars[mask] = quadrantChars[qbits]
			continue
		}
		octantChars[mask] = rune(next)
		next++
	}

	for mask, r := range octantChars {
		if _, seen := octantBits[r]; !seen {
			octantBits[r] = bits.OnesCount8(uint8(mask))
		}
	}
	for mask, r := range sextantChars {
		if _, seen := sextantBits[r]; !seen {
			sextantBits[r] = bits.OnesCount8(uint8(mask))
		}
	}
}

// brailleChar encodes a 2×4 dot block. dots is indexed row-major
// (bit = dy*2+dx); the standard permutation maps rows 0–2 of each column
// to dots 1–6 and the bottom row to dots 7–8.
func brailleChar(dots uint8) rune {
	var code rune
	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 2; dx++ {
			if dots&(1<<uint(dy*2+dx)) == 0 {
				continue
			}
			var bit uint
			if dy < 3 {
				bit = uint(dy + dx*3) // dots 1-3 / 4-6
			} else {
				bit = uint(6 + dx) // dots 7 / 8
			}
			code |= 1 << bit
		}
	}
	return 0x2800 + code
}

// Topology classes for temporal stability: characters only stabilize
// against predecessors of the same class.
type topologyClass int

const (
	classAscii topologyClass = iota
	classHalfBlock
	classBraille
	classQuadrant
	classSextant
	classOctant
)

func classOf(r rune) topologyClass {
	switch {
	case r == '▄' || r == '▀':
		return classHalfBlock
	case r >= 0x2800 && r <= 0x28FF:
		return classBraille
	case r >= 0x1FB00 && r <= 0x1FB3B:
		return classSextant
	case r >= 0x1CD00 && r <= 0x1CDFF:
		return classOctant
	case r >= 0x2580 && r <= 0x259F:
		return classQuadrant
	default:
		return classAscii
	}
}

// densityOf estimates the visual density of a glyph in [0,1]. Sub-pixel
// glyphs derive it from the popcount of their underlying bits; ASCII
// glyphs use the charset LUT position. Unknown glyphs sit mid-scale.
func densityOf(r rune, lutDensity func(rune) float64) float64 {
	switch classOf(r) {
	case classBraille:
		return float64(bits.OnesCount32(uint32(r-0x2800))) / 8
	case classSextant:
		if n, ok := sextantBits[r]; ok {
			return float64(n) / 6
		}
	case classOctant:
		if n, ok := octantBits[r]; ok {
			return float64(n) / 8
		}
	case classQuadrant:
		for mask, q := range quadrantChars {
			if q == r {
				return float64(bits.OnesCount8(uint8(mask))) / 4
			}
		}
	case classHalfBlock:
		return 0.5
	case classAscii:
		if d := lutDensity(r); d >= 0 {
			return d
		}
	}
	return 0.5
}
