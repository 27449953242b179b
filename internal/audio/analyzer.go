package audio

import (
	"log"
	"math"

	"github.com/mvasseur/asciibeat/internal/timeline"
)

// envelopeDecay is the per-frame decay of the analyzer's onset envelope.
// The effect chain tracks its own envelope with the configured strobe
// decay; this one only feeds the onset_envelope mapping source.
const envelopeDecay = 0.92

// Analyzer produces a feature timeline from a whole audio buffer at a
// target video frame rate. It is the offline half of the analysis path; a
// live capture variant would feed the same hop loop incrementally.
type Analyzer struct {
	fps int
	fft *FFT
}

// NewAnalyzer creates an offline analyzer for the given video fps.
func NewAnalyzer(fps int) (*Analyzer, error) {
	fft, err := NewFFT(FFTSize)
	if err != nil {
		return nil, err
	}
	if fps <= 0 {
		fps = 30
	}
	return &Analyzer{fps: fps, fft: fft}, nil
}

// AnalyzeFile decodes an audio file and analyzes the full buffer.
func (a *Analyzer) AnalyzeFile(path string) (*timeline.Timeline, error) {
	samples, rate, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	log.Printf("audio: decoded %d samples @ %d Hz from %s", len(samples), rate, path)
	return a.Analyze(samples, rate), nil
}

// hopRecord carries one hop's features before fps resampling.
type hopRecord struct {
	feats timeline.Features
	bpm   float64
}

// Analyze runs the hop loop over the whole buffer, resamples hop features
// to the video frame rate (nearest prior hop), then normalizes and
// classifies energy. The returned timeline is immutable afterwards.
func (a *Analyzer) Analyze(samples []float64, sampleRate int) *timeline.Timeline {
	frameDuration := 1.0 / float64(a.fps)
	tl := &timeline.Timeline{
		FrameDuration: frameDuration,
		SampleRate:    sampleRate,
	}
	if len(samples) == 0 || sampleRate <= 0 {
		return tl
	}

	numHops := (len(samples) + HopSize - 1) / HopSize
	hops := make([]hopRecord, numHops)

	beat := newBeatDetector(a.fft.Bins(), sampleRate)
	mel := NewMelFilterbank(a.fft.Bins(), sampleRate)
	var bandState [32]float64

	for h := 0; h < numHops; h++ {
		start := h * HopSize
		winEnd := start + FFTSize
		if winEnd > len(samples) {
			winEnd = len(samples) // zero-padded by the FFT
		}
		hopEnd := start + HopSize
		if hopEnd > len(samples) {
			hopEnd = len(samples)
		}

		spectrum := a.fft.Process(samples[start:winEnd])

		rec := &hops[h]
		extractFeatures(samples[start:hopEnd], spectrum, sampleRate, &rec.feats)

		flux, onset, intensity := beat.process(h, spectrum)
		rec.feats.SpectralFlux = flux
		rec.feats.Onset = onset
		rec.feats.BeatIntensity = intensity
		rec.bpm = beat.bpm

		rec.feats.TimbralBrightness, rec.feats.TimbralRoughness = mel.Apply(spectrum)
		spectrumBands(spectrum, sampleRate, &bandState, &rec.feats.SpectrumBands)
	}

	// Resample hop-indexed features to render frames: each frame reads the
	// nearest prior hop, aggregating onsets over the hops it covers.
	totalFrames := int(math.Ceil(float64(len(samples)) * float64(a.fps) / float64(sampleRate)))
	tl.Frames = make([]timeline.Features, totalFrames)

	envelope := 0.0
	phase := 0.0
	prevHop := -1
	for t := 0; t < totalFrames; t++ {
		hopIdx := t * sampleRate / (a.fps * HopSize)
		if hopIdx >= numHops {
			hopIdx = numHops - 1
		}

		f := hops[hopIdx].feats
		f.BPM = hops[hopIdx].bpm

		// Onset if any hop in (prevHop, hopIdx] fired; intensity is the max.
		f.Onset = false
		f.BeatIntensity = 0
		for h := prevHop + 1; h <= hopIdx && h >= 0; h++ {
			if hops[h].feats.Onset {
				f.Onset = true
				if hops[h].feats.BeatIntensity > f.BeatIntensity {
					f.BeatIntensity = hops[h].feats.BeatIntensity
				}
			}
		}
		prevHop = hopIdx

		envelope *= envelopeDecay
		if f.Onset {
			phase = 0
			if f.BeatIntensity > envelope {
				envelope = f.BeatIntensity
			}
		} else if f.BPM > 0 {
			phase += f.BPM / 60 / float64(a.fps)
			phase -= math.Floor(phase)
		}
		f.BeatPhase = phase
		f.OnsetEnvelope = envelope

		tl.Frames[t] = f
	}

	tl.Normalize()
	tl.ComputeEnergyLevels()
	return tl
}
