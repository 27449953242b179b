// Package timeline holds the frame-indexed audio feature timeline built
// once at export start and read-only afterwards.
package timeline

import (
	"math"
	"sort"
)

// Energy classes derived from windowed RMS percentiles.
const (
	EnergyLow = iota
	EnergyMedium
	EnergyHigh
)

// Features is the fixed-size per-frame audio feature vector. All scalar
// fields except BPM lie in [0,1]; all but BPM, onset and beat phase (which
// wraps in [0,1) by construction) are rescaled by the whole-track pass.
type Features struct {
	RMS  float64
	Peak float64

	SubBass    float64
	Bass       float64
	LowMid     float64
	Mid        float64
	HighMid    float64
	Presence   float64
	Brilliance float64

	SpectralCentroid float64
	SpectralFlux     float64
	SpectralFlatness float64
	SpectralRolloff  float64
	ZeroCrossingRate float64

	Onset         bool
	BeatIntensity float64
	BeatPhase     float64 // [0,1)
	BPM           float64 // beats per minute, 0 if unknown
	OnsetEnvelope float64 // exponential decay since last onset

	TimbralBrightness float64
	TimbralRoughness  float64

	SpectrumBands [32]float64
}

// Source resolves a mapping source name to its scalar value. Unknown names
// return (0, false).
func (f *Features) Source(name string) (float64, bool) {
	switch name {
	case "rms":
		return f.RMS, true
	case "peak":
		return f.Peak, true
	case "sub_bass":
		return f.SubBass, true
	case "bass":
		return f.Bass, true
	case "low_mid":
		return f.LowMid, true
	case "mid":
		return f.Mid, true
	case "high_mid":
		return f.HighMid, true
	case "presence":
		return f.Presence, true
	case "brilliance":
		return f.Brilliance, true
	case "spectral_centroid":
		return f.SpectralCentroid, true
	case "spectral_flux":
		return f.SpectralFlux, true
	case "spectral_flatness":
		return f.SpectralFlatness, true
	case "spectral_rolloff":
		return f.SpectralRolloff, true
	case "zero_crossing_rate":
		return f.ZeroCrossingRate, true
	case "onset":
		if f.Onset {
			return 1, true
		}
		return 0, true
	case "beat_intensity":
		return f.BeatIntensity, true
	case "beat_phase":
		return f.BeatPhase, true
	case "bpm":
		// Rough normalization against a fast-tempo ceiling.
		return f.BPM / 200, true
	case "onset_envelope":
		return f.OnsetEnvelope, true
	case "timbral_brightness":
		return f.TimbralBrightness, true
	case "timbral_roughness":
		return f.TimbralRoughness, true
	default:
		return 0, false
	}
}

// Timeline is the immutable frame-indexed feature container.
type Timeline struct {
	Frames        []Features
	EnergyLevels  []int
	FrameDuration float64 // seconds per render frame (1/fps)
	SampleRate    int
}

// At returns the features for a render frame, clamped to the valid range.
// An empty timeline yields the zero vector.
func (t *Timeline) At(frame int) Features {
	if len(t.Frames) == 0 {
		return Features{}
	}
	if frame < 0 {
		frame = 0
	}
	if frame >= len(t.Frames) {
		frame = len(t.Frames) - 1
	}
	return t.Frames[frame]
}

// TotalFrames returns the number of render frames covered by the audio.
func (t *Timeline) TotalFrames() int {
	return len(t.Frames)
}

// EnergyAt returns the energy class for a frame, defaulting to medium.
func (t *Timeline) EnergyAt(frame int) int {
	if frame < 0 || frame >= len(t.EnergyLevels) {
		return EnergyMedium
	}
	return t.EnergyLevels[frame]
}

// Normalize rescales every continuous scalar feature to [0,1] using its
// whole-track min/max. A degenerate range (< 1e-6) maps the feature to 0.5
// everywhere. BPM, onset and beat phase are exempt.
func (t *Timeline) Normalize() {
	if len(t.Frames) < 2 {
		return
	}

	fields := []func(*Features) *float64{
		func(f *Features) *float64 { return &f.RMS },
		func(f *Features) *float64 { return &f.Peak },
		func(f *Features) *float64 { return &f.SubBass },
		func(f *Features) *float64 { return &f.Bass },
		func(f *Features) *float64 { return &f.LowMid },
		func(f *Features) *float64 { return &f.Mid },
		func(f *Features) *float64 { return &f.HighMid },
		func(f *Features) *float64 { return &f.Presence },
		func(f *Features) *float64 { return &f.Brilliance },
		func(f *Features) *float64 { return &f.SpectralCentroid },
		func(f *Features) *float64 { return &f.SpectralFlux },
		func(f *Features) *float64 { return &f.SpectralFlatness },
		func(f *Features) *float64 { return &f.SpectralRolloff },
		func(f *Features) *float64 { return &f.ZeroCrossingRate },
		func(f *Features) *float64 { return &f.BeatIntensity },
		func(f *Features) *float64 { return &f.TimbralBrightness },
		func(f *Features) *float64 { return &f.TimbralRoughness },
		func(f *Features) *float64 { return &f.OnsetEnvelope },
	}

	for _, field := range fields {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range t.Frames {
			v := *field(&t.Frames[i])
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		for i := range t.Frames {
			p := field(&t.Frames[i])
			if span < 1e-6 {
				*p = 0.5
			} else {
				*p = clamp01((*p - lo) / span)
			}
		}
	}
}

// ComputeEnergyLevels classifies each frame as low/medium/high energy from
// a 5-second sliding-window RMS average thresholded at the 30th and 70th
// percentiles of the whole track.
func (t *Timeline) ComputeEnergyLevels() {
	n := len(t.Frames)
	if n == 0 {
		t.EnergyLevels = nil
		return
	}

	window := int(5.0 / t.FrameDuration)
	if window < 1 {
		window = 1
	}
	half := window / 2

	smooth := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}
		sum := 0.0
		for j := lo; j < hi; j++ {
			sum += t.Frames[j].RMS
		}
		smooth[i] = sum / float64(hi-lo)
	}

	sorted := append([]float64(nil), smooth...)
	sort.Float64s(sorted)
	p30 := sorted[n*30/100]
	p70 := sorted[n*70/100]

	t.EnergyLevels = make([]int, n)
	for i, v := range smooth {
		switch {
		case v <= p30:
			t.EnergyLevels[i] = EnergyLow
		case v >= p70:
			t.EnergyLevels[i] = EnergyHigh
		default:
			t.EnergyLevels[i] = EnergyMedium
		}
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
