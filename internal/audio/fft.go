package audio

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// FFTSize and HopSize define the short-time analysis geometry.
const (
	FFTSize = 2048
	HopSize = 512
)

// FFT is a reusable Hann-windowed forward FFT pipeline. All buffers are
// pre-allocated; Process is allocation-free.
type FFT struct {
	size   int
	plan   *algofft.Plan[complex128]
	window []float64
	input  []complex128
	output []complex128
	mags   []float64
}

// NewFFT creates a pipeline with the given power-of-two size.
func NewFFT(size int) (*FFT, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("audio: creating FFT plan: %w", err)
	}

	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}

	return &FFT{
		size:   size,
		plan:   plan,
		window: window,
		input:  make([]complex128, size),
		output: make([]complex128, size),
		mags:   make([]float64, size/2+1),
	}, nil
}

// Size returns the FFT length.
func (f *FFT) Size() int { return f.size }

// Bins returns the number of magnitude bins (N/2+1).
func (f *FFT) Bins() int { return f.size/2 + 1 }

// Process windows the samples, runs the forward transform and returns the
// magnitude spectrum. Short inputs are zero-padded. The returned slice is
// reused across calls.
func (f *FFT) Process(samples []float64) []float64 {
	n := len(samples)
	if n > f.size {
		n = f.size
	}
	for i := 0; i < n; i++ {
		f.input[i] = complex(samples[i]*f.window[i], 0)
	}
	for i := n; i < f.size; i++ {
		f.input[i] = 0
	}

	if err := f.plan.Forward(f.output, f.input); err != nil {
		for i := range f.mags {
			f.mags[i] = 0
		}
		return f.mags
	}

	scale := 1.0 / float64(f.size)
	for i := range f.mags {
		c := f.output[i]
		re, im := real(c), imag(c)
		f.mags[i] = math.Sqrt(re*re+im*im) * scale
	}
	return f.mags
}
