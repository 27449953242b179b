package config

import "testing"

func TestLuminanceLUTExtremes(t *testing.T) {
	lut := NewLuminanceLUT(" .:#@")
	if got := lut.Map(0); got != ' ' {
		t.Fatalf("Map(0) = %q, want space", got)
	}
	if got := lut.Map(255); got != '@' {
		t.Fatalf("Map(255) = %q, want '@'", got)
	}
}

func TestLuminanceLUTMidGray(t *testing.T) {
	lut := NewLuminanceLUT(CharsetShort1) // " .:-=+*#%@"
	if got := lut.Map(128); got != '+' {
		t.Fatalf("Map(128) = %q, want '+'", got)
	}
}

func TestLuminanceLUTMonotonic(t *testing.T) {
	for _, charset := range CharsetPool {
		lut := NewLuminanceLUT(charset)
		prev := -1.0
		for i := 0; i < 256; i++ {
			d := lut.Density(lut.Map(uint8(i)))
			if d < prev {
				t.Fatalf("charset %q: density decreased at luminance %d (%f < %f)", charset, i, d, prev)
			}
			if d >= 0 {
				prev = d
			}
		}
	}
}

func TestLuminanceLUTShortCharsetFallback(t *testing.T) {
	lut := NewLuminanceLUT("x")
	if lut.Charset() != " @" {
		t.Fatalf("short charset not padded: %q", lut.Charset())
	}
	if lut.Map(0) != ' ' || lut.Map(255) != '@' {
		t.Fatalf("fallback LUT maps wrong: %q %q", lut.Map(0), lut.Map(255))
	}
}

func TestCharsetPoolAllUsable(t *testing.T) {
	for i, cs := range CharsetPool {
		if len([]rune(cs)) < 2 {
			t.Fatalf("pool charset %d too short: %q", i, cs)
		}
	}
}
