package render

import (
	"math"

	"github.com/mvasseur/asciibeat/internal/config"
)

// bayer8 is the classic 8×8 ordered-dither matrix, levels 0–63.
var bayer8 = [8][8]uint8{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// blueNoise16 is a 16×16 threshold matrix with blue-noise distribution,
// ranks 0–255. Generated once at init by void-and-cluster with a fixed
// seed so the matrix (and therefore the frame stream) is deterministic.
var blueNoise16 [16][16]uint8

func init() {
	const n = 16
	const sigma = 1.9

	// Gaussian energy kernel with toroidal wrap.
	var kernel [n][n]float64
	for dy := 0; dy < n; dy++ {
		for dx := 0; dx < n; dx++ {
			wx := dx
			if wx > n/2 {
				wx = n - wx
			}
			wy := dy
			if wy > n/2 {
				wy = n - wy
			}
			d2 := float64(wx*wx + wy*wy)
			kernel[dy][dx] = math.Exp(-d2 / (2 * sigma * sigma))
		}
	}

	var placed [n][n]bool
	var energy [n][n]float64
	place := func(x, y int) {
		placed[y][x] = true
		for dy := 0; dy < n; dy++ {
			for dx := 0; dx < n; dx++ {
				energy[(y+dy)%n][(x+dx)%n] += kernel[dy][dx]
			}
		}
	}

	// Seed point, then repeatedly fill the largest void. Ties resolve by
	// scan order, keeping the matrix reproducible.
	place(5, 3)
	blueNoise16[3][5] = 0
	for rank := 1; rank < n*n; rank++ {
		bestX, bestY := -1, -1
		bestE := 0.0
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				if placed[y][x] {
					continue
				}
				if bestX < 0 || energy[y][x] < bestE {
					bestX, bestY = x, y
					bestE = energy[y][x]
				}
			}
		}
		place(bestX, bestY)
		blueNoise16[bestY][bestX] = uint8(rank)
	}
}

// ditherLuminance perturbs a luminance value by the ordered-dither
// threshold at (x, y), scaled to one charset quantization step, so the
// mapped character index dithers between adjacent glyphs.
func ditherLuminance(lum uint8, x, y int, levels int, mode config.DitherMode) uint8 {
	if mode == config.DitherOff || lum < 2 || lum > 253 {
		return lum
	}

	var threshold float64
	switch mode {
	case config.DitherBayer8:
		threshold = float64(bayer8[y&7][x&7])/64 - 0.5
	case config.DitherBlueNoise16:
		threshold = float64(blueNoise16[y&15][x&15])/256 - 0.5
	}

	if levels < 2 {
		levels = 2
	}
	step := 255.0 / float64(levels-1)
	v := float64(lum) + threshold*step
	return clamp255(v)
}
