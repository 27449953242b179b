// Package director derives the per-frame effective render configuration
// from the base configuration and the audio feature timeline: continuous
// audio mappings, discrete macro mutations, low-energy drift and preset
// sequencing.
package director

import (
	"math"
	"math/rand"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/timeline"
)

// Director owns all per-export mutation state. All stochastic choices draw
// from a single seeded stream: same seed and inputs, same output sequence.
type Director struct {
	base config.Render
	tl   *timeline.Timeline
	rng  *rand.Rand
	fps  int

	mutationIntensity float64

	// Per-mapping EMA state, indexed by mapping position.
	smoothed    []float64
	smoothInit  []bool
	invertAccum float64

	macros macroState

	presets *PresetSequencer
	// Scratch for preset interpolation output.
	presetBuf config.Render
}

// New creates a director. presets may be nil (single-config mode).
func New(base config.Render, tl *timeline.Timeline, seed int64, fps int, mutationIntensity float64, presets *PresetSequencer) *Director {
	base.ClampAll()
	if fps <= 0 {
		fps = 30
	}
	if mutationIntensity <= 0 {
		mutationIntensity = 1
	}
	return &Director{
		base:              base,
		tl:                tl,
		rng:               rand.New(rand.NewSource(seed)),
		fps:               fps,
		mutationIntensity: mutationIntensity,
		smoothed:          make([]float64, len(base.AudioMappings)),
		smoothInit:        make([]bool, len(base.AudioMappings)),
		macros:            newMacroState(),
		presets:           presets,
	}
}

// Timeline exposes the shared feature timeline.
func (d *Director) Timeline() *timeline.Timeline { return d.tl }

// ConfigAt writes the effective configuration for frame t into out.
// Zero allocation: out is caller-provided storage.
func (d *Director) ConfigAt(t int, out *config.Render) {
	feats := d.tl.At(t)
	energy := d.tl.EnergyAt(t)

	// Preset sequencing replaces the base for this frame.
	if d.presets != nil {
		d.presets.Step(energy, d.fps, &d.presetBuf)
		*out = d.presetBuf
		if len(out.AudioMappings) != len(d.smoothed) {
			d.smoothed = make([]float64, len(out.AudioMappings))
			d.smoothInit = make([]bool, len(out.AudioMappings))
		}
	} else {
		*out = d.base
	}

	d.applyMappings(&feats, out)
	d.macros.tick()
	d.attemptMutations(&feats, energy, out)
	if energy == timeline.EnergyLow {
		d.lowEnergyDrift(t, out)
	}
	d.macros.apply(out)
	out.ClampAll()
}

// applyMappings runs every enabled continuous mapping: curve, amount,
// sensitivity, offset, smoothing, then a per-field clamp. The binary
// invert target flips when the accumulated magnitude passes 0.5 and
// auto-reverts after 90 frames.
func (d *Director) applyMappings(feats *timeline.Features, out *config.Render) {
	for i := range out.AudioMappings {
		m := &out.AudioMappings[i]
		if !m.Enabled {
			continue
		}
		x, ok := feats.Source(m.Source)
		if !ok {
			continue
		}

		delta := m.Curve.Apply(x)*m.Amount*out.AudioSensitivity + m.Offset

		if i < len(d.smoothed) {
			delta = d.smoothMapping(i, delta, m.Smoothing, out.AudioSmoothing)
		}

		if m.Target == "invert" {
			d.invertAccum += math.Abs(delta)
			if d.invertAccum > 0.5 {
				d.invertAccum = 0
				d.macros.invert = boolPtr(!out.Invert)
				d.macros.invertCountdown = invertFlashFrames
			}
			continue
		}

		applyDelta(out, m.Target, delta)
		out.ClampField(m.Target)
	}
}

// smoothMapping applies the per-mapping EMA when an alpha is set, or the
// global attack/release smoother otherwise (fast attack, slow release).
func (d *Director) smoothMapping(i int, value, alpha, globalSmoothing float64) float64 {
	if !d.smoothInit[i] {
		d.smoothInit[i] = true
		d.smoothed[i] = value
		return value
	}

	var a float64
	if alpha >= 0 {
		a = alpha
	} else {
		base := 1 - globalSmoothing
		if base < 0.01 {
			base = 0.01
		}
		if value > d.smoothed[i] {
			a = math.Min(base*2, 1)
		} else {
			a = math.Max(base*0.5, 0.01)
		}
	}
	d.smoothed[i] = a*value + (1-a)*d.smoothed[i]
	return d.smoothed[i]
}

// applyDelta adds a mapping delta to its named target field.
func applyDelta(out *config.Render, target string, delta float64) {
	switch target {
	case "edge_threshold":
		out.EdgeThreshold += delta
	case "edge_mix":
		out.EdgeMix += delta
	case "contrast":
		out.Contrast += delta
	case "brightness":
		out.Brightness += delta
	case "saturation":
		out.Saturation += delta
	case "density_scale":
		out.DensityScale += delta * 2
	case "fade_decay":
		out.FadeDecay += delta
	case "glow_intensity":
		out.GlowIntensity += delta
	case "zalgo_intensity":
		out.ZalgoIntensity += delta
	case "beat_flash_intensity":
		out.BeatFlashIntensity += delta
	case "chromatic_offset":
		out.ChromaticOffset += delta
	case "wave_amplitude":
		out.WaveAmplitude += delta
	case "wave_speed":
		out.WaveSpeed += delta
	case "color_pulse_speed":
		out.ColorPulseSpeed += delta
	case "strobe_decay":
		out.StrobeDecay += delta
	case "temporal_stability":
		out.TemporalStability += delta
	case "camera_zoom_amplitude":
		out.CameraZoomAmplitude += delta
	case "camera_rotation":
		out.CameraRotation += delta
	case "camera_pan_x":
		out.CameraPanX += delta
	case "camera_pan_y":
		out.CameraPanY += delta
	}
}

// lowEnergyDrift keeps quiet passages alive with a slow deterministic
// oscillator on glow, saturation and brightness.
func (d *Director) lowEnergyDrift(t int, out *config.Render) {
	phase := float64(t) / float64(d.fps)
	out.GlowIntensity += 0.15 * math.Sin(phase*0.37)
	out.Saturation += 0.2 * math.Sin(phase*0.23+1.3)
	out.Brightness += 0.05 * math.Sin(phase*0.31+2.1)
}

// CrossfadeFrames returns the energy-adaptive crossfade duration for a
// clip advance at frame t.
func (d *Director) CrossfadeFrames(t int) int {
	switch d.tl.EnergyAt(t) {
	case timeline.EnergyHigh:
		return maxInt(d.fps/4, 1)
	case timeline.EnergyLow:
		return maxInt(d.fps, 1)
	default:
		return maxInt(d.fps/2, 1)
	}
}

// ClipBudget scales the sequencer's proportional clip budget by energy.
func (d *Director) ClipBudget(t, baseBudget int) int {
	switch d.tl.EnergyAt(t) {
	case timeline.EnergyHigh:
		return maxInt(baseBudget/2, 1)
	case timeline.EnergyLow:
		return baseBudget * 3 / 2
	default:
		return baseBudget
	}
}

// ShouldAdvanceClip reports whether the sequencer should move to the next
// clip: budget exhausted, or a strong onset during high energy.
func (d *Director) ShouldAdvanceClip(t, clipFrames, baseBudget int) bool {
	if clipFrames >= d.ClipBudget(t, baseBudget) {
		return true
	}
	feats := d.tl.At(t)
	return d.tl.EnergyAt(t) == timeline.EnergyHigh &&
		feats.Onset && feats.BeatIntensity > clipAdvanceBeatThreshold
}

func boolPtr(b bool) *bool { return &b }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
