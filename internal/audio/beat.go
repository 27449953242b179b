package audio

import (
	"math"
	"sort"
)

// onsetWarmupHops skips the first analysis hops so the flux EMA can settle.
const onsetWarmupHops = 10

// onsetCooldownSec is the minimum spacing between onsets (~130 ms).
const onsetCooldownSec = 0.13

// beatDetector runs spectral-flux onset detection and BPM estimation over
// the hop stream. It owns the previous spectrum.
type beatDetector struct {
	prevSpectrum []float64
	fluxEMA      float64
	hop          int
	hopRate      float64 // hops per second
	cooldownHops int
	lastOnsetHop int
	intervals    []int // inter-onset gaps in hops, most recent last
	sorted       []int // scratch for the median
	bpm          float64
}

func newBeatDetector(bins int, sampleRate int) *beatDetector {
	hopRate := float64(sampleRate) / HopSize
	cd := int(math.Ceil(onsetCooldownSec * hopRate))
	if cd < 1 {
		cd = 1
	}
	return &beatDetector{
		prevSpectrum: make([]float64, bins),
		hopRate:      hopRate,
		cooldownHops: cd,
		lastOnsetHop: -1 << 30,
		intervals:    make([]int, 0, 16),
		sorted:       make([]int, 0, 16),
	}
}

// flux computes the plain and bass-weighted positive spectral flux against
// the previous hop. Bass bins (first quarter) contribute doubled to the
// weighted sum used for onset detection.
func (b *beatDetector) flux(spectrum []float64) (plain, bassWeighted float64) {
	n := len(spectrum)
	if n != len(b.prevSpectrum) {
		copy(b.prevSpectrum, spectrum)
		return 0, 0
	}
	bassCut := n / 4
	for k := 0; k < n; k++ {
		d := spectrum[k] - b.prevSpectrum[k]
		if d <= 0 {
			continue
		}
		sq := d * d
		plain += sq
		if k < bassCut {
			bassWeighted += 2 * sq
		} else {
			bassWeighted += sq
		}
	}
	plain /= float64(n)
	bassWeighted /= float64(n)
	copy(b.prevSpectrum, spectrum)
	return plain, bassWeighted
}

// process advances the detector by one hop. Returns the plain spectral
// flux, whether an onset fired, and its intensity.
func (b *beatDetector) process(hopIdx int, spectrum []float64) (plainFlux float64, onset bool, intensity float64) {
	plain, weighted := b.flux(spectrum)
	plainFlux = plain

	ema := b.fluxEMA
	b.fluxEMA = 0.1*weighted + 0.9*ema

	if hopIdx < onsetWarmupHops {
		b.hop = hopIdx
		return plainFlux, false, 0
	}
	if weighted > ema*1.5 && weighted > 1e-9 && hopIdx-b.lastOnsetHop >= b.cooldownHops {
		onset = true
		if ema > 1e-12 {
			intensity = clamp01(weighted/ema - 1)
		} else {
			intensity = 1
		}

		gap := hopIdx - b.lastOnsetHop
		b.lastOnsetHop = hopIdx
		if gap > 0 && gap < 1<<20 {
			b.intervals = append(b.intervals, gap)
			if len(b.intervals) > 16 {
				b.intervals = b.intervals[1:]
			}
			b.updateBPM()
		}
	}
	b.hop = hopIdx
	return plainFlux, onset, intensity
}

// updateBPM takes the median of the recorded inter-onset intervals.
func (b *beatDetector) updateBPM() {
	if len(b.intervals) < 4 {
		return
	}
	b.sorted = append(b.sorted[:0], b.intervals...)
	sort.Ints(b.sorted)
	median := float64(b.sorted[len(b.sorted)/2])
	if median <= 0 {
		return
	}
	bpm := 60 * b.hopRate / median
	if bpm < 30 {
		bpm = 30
	}
	if bpm > 300 {
		bpm = 300
	}
	b.bpm = bpm
}
