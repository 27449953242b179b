package audio

import (
	"math"

	"github.com/mvasseur/asciibeat/internal/timeline"
)

// Named frequency band edges in Hz.
var bandEdges = [7][2]float64{
	{20, 60},      // sub_bass
	{60, 250},     // bass
	{250, 500},    // low_mid
	{500, 2000},   // mid
	{2000, 4000},  // high_mid
	{4000, 6000},  // presence
	{6000, 20000}, // brilliance
}

const magFloor = 1e-10

// extractFeatures fills the spectral and amplitude features of one hop from
// its raw samples and magnitude spectrum. Flux and event features are
// handled by the analyzer, which owns the previous spectrum.
func extractFeatures(samples, spectrum []float64, sampleRate int, out *timeline.Features) {
	// RMS and peak over the hop.
	if len(samples) > 0 {
		sumSq := 0.0
		peak := 0.0
		for _, s := range samples {
			sumSq += s * s
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
		out.RMS = math.Min(math.Sqrt(sumSq/float64(len(samples))), 1)
		out.Peak = math.Min(peak, 1)
	}

	if len(spectrum) < 2 {
		return
	}
	binHz := float64(sampleRate) / float64((len(spectrum)-1)*2)
	nyquist := float64(sampleRate) / 2

	// Band energies: mean |X|² over each band's bins.
	bands := [7]float64{}
	for b, edge := range bandEdges {
		lo := int(edge[0] / binHz)
		hi := int(edge[1] / binHz)
		if hi > len(spectrum) {
			hi = len(spectrum)
		}
		if lo >= hi {
			continue
		}
		sum := 0.0
		for k := lo; k < hi; k++ {
			sum += spectrum[k] * spectrum[k]
		}
		bands[b] = math.Min(sum/float64(hi-lo), 1)
	}
	out.SubBass = bands[0]
	out.Bass = bands[1]
	out.LowMid = bands[2]
	out.Mid = bands[3]
	out.HighMid = bands[4]
	out.Presence = bands[5]
	out.Brilliance = bands[6]

	// Spectral centroid, flatness, rolloff over the full spectrum.
	total := 0.0
	weighted := 0.0
	logSum := 0.0
	for k, mag := range spectrum {
		total += mag
		weighted += float64(k) * binHz * mag
		logSum += math.Log(mag + magFloor)
	}
	if total > magFloor {
		out.SpectralCentroid = clamp01(weighted / total / nyquist)

		n := float64(len(spectrum))
		geoMean := math.Exp(logSum / n)
		arithMean := total / n
		out.SpectralFlatness = clamp01(geoMean / arithMean)

		// Rolloff: smallest frequency below which 85% of the cumulative
		// energy lies.
		target := 0.85 * total
		cum := 0.0
		for k, mag := range spectrum {
			cum += mag
			if cum >= target {
				out.SpectralRolloff = clamp01(float64(k) * binHz / nyquist)
				break
			}
		}
	}

	// Zero-crossing rate on the raw hop samples.
	if len(samples) > 1 {
		crossings := 0
		for i := 1; i < len(samples); i++ {
			if (samples[i-1] >= 0) != (samples[i] >= 0) {
				crossings++
			}
		}
		out.ZeroCrossingRate = float64(crossings) / float64(len(samples)-1)
	}
}

// spectrumBands fills the 32 log-frequency visualization bands, with
// per-band EMA smoothing scaled by perceptual time-constants (bass reacts
// faster than highs). prev carries the smoothed state between hops.
func spectrumBands(spectrum []float64, sampleRate int, prev *[32]float64, out *[32]float64) {
	if len(spectrum) < 2 {
		*out = *prev
		return
	}
	binHz := float64(sampleRate) / float64((len(spectrum)-1)*2)
	logMin := math.Log(20.0)
	logMax := math.Log(20000.0)

	for b := 0; b < 32; b++ {
		fLo := math.Exp(logMin + (logMax-logMin)*float64(b)/32)
		fHi := math.Exp(logMin + (logMax-logMin)*float64(b+1)/32)
		lo := int(fLo / binHz)
		hi := int(fHi / binHz)
		if lo >= len(spectrum) {
			lo = len(spectrum) - 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(spectrum) {
			hi = len(spectrum)
		}
		sum := 0.0
		for k := lo; k < hi; k++ {
			sum += spectrum[k]
		}
		raw := math.Min(sum/float64(hi-lo), 1)

		// Time-constant multipliers: bass ×1.3, mid ×1.0, highs ×0.7.
		mult := 1.0
		switch {
		case b < 8:
			mult = 1.3
		case b >= 20:
			mult = 0.7
		}
		alpha := math.Min(0.5*mult, 1)
		prev[b] += alpha * (raw - prev[b])
		out[b] = prev[b]
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
