package audio

import "math"

// melFilterCount and mfccCount fix the timbral analysis geometry: 26
// triangular filters over 300–8000 Hz reduced to five DCT-II coefficients.
const (
	melFilterCount = 26
	mfccCount      = 5
	melLowHz       = 300.0
	melHighHz      = 8000.0
)

// MelFilterbank computes the two MFCC-derived timbral scalars. Filter
// shapes and DCT cosines are pre-computed; Apply is allocation-free.
type MelFilterbank struct {
	// weights[f] holds the f-th triangle's weights for bins
	// filterLo[f]..filterHi[f].
	filterLo  []int
	filterHi  []int
	weights   [][]float64
	dct       [mfccCount][melFilterCount]float64
	energies  [melFilterCount]float64
	coeffs    [mfccCount]float64
	binCount  int
	validBins bool
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// NewMelFilterbank builds the triangular filters for the given spectrum
// geometry (bins = N/2+1).
func NewMelFilterbank(bins, sampleRate int) *MelFilterbank {
	fb := &MelFilterbank{
		filterLo: make([]int, melFilterCount),
		filterHi: make([]int, melFilterCount),
		weights:  make([][]float64, melFilterCount),
		binCount: bins,
	}
	if bins < 2 || sampleRate <= 0 {
		return fb
	}
	fb.validBins = true

	binHz := float64(sampleRate) / float64((bins-1)*2)
	melLo := hzToMel(melLowHz)
	melHi := hzToMel(melHighHz)

	// melFilterCount+2 edge points, evenly spaced on the mel scale.
	edges := make([]float64, melFilterCount+2)
	for i := range edges {
		mel := melLo + (melHi-melLo)*float64(i)/float64(melFilterCount+1)
		edges[i] = melToHz(mel) / binHz
	}

	for f := 0; f < melFilterCount; f++ {
		lo, center, hi := edges[f], edges[f+1], edges[f+2]
		loBin := int(math.Ceil(lo))
		hiBin := int(math.Floor(hi))
		if loBin < 0 {
			loBin = 0
		}
		if hiBin >= bins {
			hiBin = bins - 1
		}
		fb.filterLo[f] = loBin
		fb.filterHi[f] = hiBin
		w := make([]float64, 0, hiBin-loBin+1)
		for k := loBin; k <= hiBin; k++ {
			x := float64(k)
			var v float64
			switch {
			case x < center && center > lo:
				v = (x - lo) / (center - lo)
			case x >= center && hi > center:
				v = (hi - x) / (hi - center)
			}
			if v < 0 {
				v = 0
			}
			w = append(w, v)
		}
		fb.weights[f] = w
	}

	for c := 0; c < mfccCount; c++ {
		for f := 0; f < melFilterCount; f++ {
			fb.dct[c][f] = math.Cos(math.Pi * float64(c) * (float64(f) + 0.5) / melFilterCount)
		}
	}
	return fb
}

// Apply runs the filterbank over a magnitude spectrum and returns
// (brightness, roughness): brightness is the high-coefficient share of the
// DCT energy, roughness the variance across filter outputs.
func (fb *MelFilterbank) Apply(spectrum []float64) (brightness, roughness float64) {
	if !fb.validBins || len(spectrum) < fb.binCount {
		return 0, 0
	}

	mean := 0.0
	for f := 0; f < melFilterCount; f++ {
		sum := 0.0
		for i, w := range fb.weights[f] {
			sum += spectrum[fb.filterLo[f]+i] * w
		}
		e := math.Log(sum + magFloor)
		fb.energies[f] = e
		mean += e
	}
	mean /= melFilterCount

	// Roughness: variance across the log filter outputs.
	variance := 0.0
	for f := 0; f < melFilterCount; f++ {
		d := fb.energies[f] - mean
		variance += d * d
	}
	roughness = variance / melFilterCount

	// DCT-II down to mfccCount coefficients.
	for c := 0; c < mfccCount; c++ {
		sum := 0.0
		for f := 0; f < melFilterCount; f++ {
			sum += fb.energies[f] * fb.dct[c][f]
		}
		fb.coeffs[c] = sum
	}

	total := 0.0
	high := 0.0
	for c := 0; c < mfccCount; c++ {
		a := math.Abs(fb.coeffs[c])
		total += a
		if c >= 3 {
			high += a
		}
	}
	if total > magFloor {
		brightness = high / total
	}
	return brightness, roughness
}
