package render

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/mvasseur/asciibeat/internal/config"
)

// RGBToHSV converts byte RGB to (h, s, v) with h in [0,1).
func RGBToHSV(r, g, b uint8) (float64, float64, float64) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v := c.Hsv()
	return h / 360, s, v
}

// HSVToRGB converts (h in [0,1), s, v) back to byte RGB.
func HSVToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h -= math.Floor(h)
	c := colorful.Hsv(h*360, clampf(s, 0, 1), clampf(v, 0, 1))
	return clamp255(c.R * 255), clamp255(c.G * 255), clamp255(c.B * 255)
}

// srgbToLinear converts one sRGB channel in [0,1] to linear light.
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// linearToSrgb converts one linear channel back to sRGB.
func linearToSrgb(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// RGBToOklab converts byte RGB to Oklab (L, a, b).
func RGBToOklab(r, g, b uint8) (float64, float64, float64) {
	lr := srgbToLinear(float64(r) / 255)
	lg := srgbToLinear(float64(g) / 255)
	lb := srgbToLinear(float64(b) / 255)

	l := 0.4122214708*lr + 0.5363325363*lg + 0.0514459929*lb
	m := 0.2119034982*lr + 0.6806995451*lg + 0.1073969566*lb
	s := 0.0883024619*lr + 0.2817188376*lg + 0.6299787005*lb

	lc := math.Cbrt(l)
	mc := math.Cbrt(m)
	sc := math.Cbrt(s)

	return 0.2104542553*lc + 0.7936177850*mc - 0.0040720468*sc,
		1.9779984951*lc - 2.4285922050*mc + 0.4505937099*sc,
		0.0259040371*lc + 0.7827717662*mc - 0.8086757660*sc
}

// OklabToRGB converts Oklab (L, a, b) back to byte RGB, clamped to gamut.
func OklabToRGB(L, a, b float64) (uint8, uint8, uint8) {
	lc := L + 0.3963377774*a + 0.2158037573*b
	mc := L - 0.1055613458*a - 0.0638541728*b
	sc := L - 0.0894841775*a - 1.2914855480*b

	l := lc * lc * lc
	m := mc * mc * mc
	s := sc * sc * sc

	lr := 4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	lg := -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	lb := -0.0041960863*l - 0.7034186147*m + 1.7076147010*s

	return clamp255(linearToSrgb(clampf(lr, 0, 1)) * 255),
		clamp255(linearToSrgb(clampf(lg, 0, 1)) * 255),
		clamp255(linearToSrgb(clampf(lb, 0, 1)) * 255)
}

// MapColor applies the configured color mode to a source color.
func MapColor(r, g, b uint8, mode config.ColorMode, saturation float64) (uint8, uint8, uint8) {
	switch mode {
	case config.ColorHsvBright:
		h, s, _ := RGBToHSV(r, g, b)
		return HSVToRGB(h, clampf(s*saturation, 0, 1), 1)
	case config.ColorOklab:
		_, a2, b2 := RGBToOklab(r, g, b)
		return OklabToRGB(1, a2, b2)
	case config.ColorQuantized:
		return quantize(r), quantize(g), quantize(b)
	default:
		return r, g, b
	}
}

// quantize snaps a channel to the nearest of six levels (0, 51 ... 255).
func quantize(c uint8) uint8 {
	return uint8((int(c) + 25) / 51 * 51)
}

// adjust applies contrast then brightness to one channel.
func adjust(c uint8, contrast, brightness float64) uint8 {
	v := (float64(c)-128)*contrast + 128 + brightness*255
	return clamp255(v)
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
