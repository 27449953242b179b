package render

import (
	"testing"

	"github.com/mvasseur/asciibeat/internal/config"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestHSVRoundTrip(t *testing.T) {
	for r := 0; r <= 255; r += 17 {
		for g := 0; g <= 255; g += 17 {
			for b := 0; b <= 255; b += 17 {
				h, s, v := RGBToHSV(uint8(r), uint8(g), uint8(b))
				r2, g2, b2 := HSVToRGB(h, s, v)
				if absDiff(uint8(r), r2) > 1 || absDiff(uint8(g), g2) > 1 || absDiff(uint8(b), b2) > 1 {
					t.Fatalf("HSV round trip (%d,%d,%d) → (%d,%d,%d)", r, g, b, r2, g2, b2)
				}
			}
		}
	}
}

func TestOklabRoundTrip(t *testing.T) {
	for r := 0; r <= 255; r += 17 {
		for g := 0; g <= 255; g += 17 {
			for b := 0; b <= 255; b += 17 {
				L, a, bb := RGBToOklab(uint8(r), uint8(g), uint8(b))
				r2, g2, b2 := OklabToRGB(L, a, bb)
				if absDiff(uint8(r), r2) > 1 || absDiff(uint8(g), g2) > 1 || absDiff(uint8(b), b2) > 1 {
					t.Fatalf("Oklab round trip (%d,%d,%d) → (%d,%d,%d)", r, g, b, r2, g2, b2)
				}
			}
		}
	}
}

func TestQuantizedLevels(t *testing.T) {
	levels := map[uint8]bool{0: true, 51: true, 102: true, 153: true, 204: true, 255: true}
	for c := 0; c <= 255; c++ {
		r, g, b := MapColor(uint8(c), uint8(c), uint8(c), config.ColorQuantized, 1)
		if !levels[r] || !levels[g] || !levels[b] {
			t.Fatalf("quantize(%d) = (%d,%d,%d), not on the 6-level grid", c, r, g, b)
		}
	}
}

func TestHsvBrightForcesValue(t *testing.T) {
	r, g, b := MapColor(120, 40, 40, config.ColorHsvBright, 1)
	_, _, v := RGBToHSV(r, g, b)
	if v < 0.99 {
		t.Fatalf("HsvBright value = %v, want 1.0", v)
	}
}

func TestAdjustContrastBrightness(t *testing.T) {
	// Neutral settings leave the value unchanged.
	if got := adjust(100, 1, 0); got != 100 {
		t.Fatalf("adjust neutral = %d, want 100", got)
	}
	// 128 is the contrast pivot.
	if got := adjust(128, 3, 0); got != 128 {
		t.Fatalf("adjust pivot = %d, want 128", got)
	}
	if got := adjust(200, 1, 1); got != 255 {
		t.Fatalf("adjust clamps high: %d", got)
	}
	if got := adjust(50, 1, -1); got != 0 {
		t.Fatalf("adjust clamps low: %d", got)
	}
}
