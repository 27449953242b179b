package director

import (
	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/timeline"
)

// Mutation timing constants (frames).
const (
	mutationCooldownFrames = 90
	maxMutationsPerFrame   = 2
	effectBurstFrames      = 60
	densityPulseFrames     = 30
	invertFlashFrames      = 90
	modeOverrideFrames     = 180
	mutationRampFrames     = 12

	mutationBeatThreshold    = 0.85
	cameraBeatThreshold      = 0.9
	clipAdvanceBeatThreshold = 0.9
)

// Base mutation probabilities, scaled by energy and the intensity flag.
const (
	probModeCycle      = 0.12
	probCharsetRotate  = 0.15
	probEffectBurst    = 0.06
	probDensityPulse   = 0.08
	probColorModeCycle = 0.05
	probInvertFlash    = 0.10
	probCameraBurst    = 0.04
)

// modeCycle is the render-mode rotation order (Octant stays opt-in).
var modeCycle = [5]config.RenderMode{
	config.ModeAscii,
	config.ModeHalfBlock,
	config.ModeBraille,
	config.ModeQuadrant,
	config.ModeSextant,
}

var colorModeCycle = [4]config.ColorMode{
	config.ColorDirect,
	config.ColorHsvBright,
	config.ColorOklab,
	config.ColorQuantized,
}

// smoothOverride is a time-limited value pulse with smoothstep
// ramp-up / hold / ramp-down phases.
type smoothOverride struct {
	target  float64
	total   int
	ramp    int
	elapsed int
}

func newSmoothOverride(target float64, total, ramp int) *smoothOverride {
	if ramp > total/3 {
		ramp = total / 3
	}
	if ramp < 1 {
		ramp = 1
	}
	return &smoothOverride{target: target, total: total, ramp: ramp}
}

func smoothstep(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

// value returns the eased override value for the current frame.
func (o *smoothOverride) value() float64 {
	holdEnd := o.total - o.ramp
	switch {
	case o.elapsed < o.ramp:
		return o.target * smoothstep(float64(o.elapsed)/float64(o.ramp))
	case o.elapsed < holdEnd:
		return o.target
	default:
		remaining := o.total - o.elapsed
		return o.target * smoothstep(float64(remaining)/float64(o.ramp))
	}
}

// tick advances one frame and reports expiry.
func (o *smoothOverride) tick() bool {
	o.elapsed++
	return o.elapsed >= o.total
}

// Effect-burst variants, in the fixed variant order.
const (
	burstGlow = iota
	burstChromatic
	burstWave
	burstColorPulse
	burstZalgo
	burstFade
)

// Camera-burst variants.
const (
	cameraZoom = iota
	cameraRotation
	cameraPanX
	cameraPanY
)

// macroState carries the discrete mutation overrides and their revert
// countdowns.
type macroState struct {
	mode          *config.RenderMode
	modeCountdown int

	colorMode          *config.ColorMode
	colorModeCountdown int

	invert          *bool
	invertCountdown int

	charset      string
	charsetIndex int
	haveCharset  bool

	density *smoothOverride

	effectBurst   *smoothOverride
	effectBurstID int

	camera      *smoothOverride
	cameraParam int

	framesSinceLast int
}

func newMacroState() macroState {
	return macroState{framesSinceLast: 1 << 30}
}

// tick decays all countdowns and drops expired overrides.
func (m *macroState) tick() {
	if m.framesSinceLast < 1<<30 {
		m.framesSinceLast++
	}
	if m.modeCountdown > 0 {
		m.modeCountdown--
		if m.modeCountdown == 0 {
			m.mode = nil
		}
	}
	if m.colorModeCountdown > 0 {
		m.colorModeCountdown--
		if m.colorModeCountdown == 0 {
			m.colorMode = nil
		}
	}
	if m.invertCountdown > 0 {
		m.invertCountdown--
		if m.invertCountdown == 0 {
			m.invert = nil
		}
	}
	if m.density != nil && m.density.tick() {
		m.density = nil
	}
	if m.effectBurst != nil && m.effectBurst.tick() {
		m.effectBurst = nil
	}
	if m.camera != nil && m.camera.tick() {
		m.camera = nil
	}
}

// apply overlays all active overrides on the frame configuration.
func (m *macroState) apply(out *config.Render) {
	if m.mode != nil {
		out.RenderMode = *m.mode
	}
	if m.colorMode != nil {
		out.ColorMode = *m.colorMode
	}
	if m.invert != nil {
		out.Invert = *m.invert
	}
	if m.haveCharset {
		out.Charset = m.charset
		out.CharsetIndex = m.charsetIndex
	}
	if m.density != nil {
		out.DensityScale = m.density.value()
	}
	if m.effectBurst != nil {
		v := m.effectBurst.value()
		switch m.effectBurstID {
		case burstGlow:
			out.GlowIntensity = v
		case burstChromatic:
			out.ChromaticOffset = v
		case burstWave:
			out.WaveAmplitude = v
		case burstColorPulse:
			out.ColorPulseSpeed = v
		case burstZalgo:
			out.ZalgoIntensity = v
		case burstFade:
			out.FadeDecay = v
		}
	}
	if m.camera != nil {
		v := m.camera.value()
		switch m.cameraParam {
		case cameraZoom:
			out.CameraZoomAmplitude = 1 + v
		case cameraRotation:
			out.CameraRotation = v
		case cameraPanX:
			out.CameraPanX = v
		case cameraPanY:
			out.CameraPanY = v
		}
	}
}

// attemptMutations fires at most two macro mutations on a strong onset,
// throttled by the frame-wide cooldown and scaled by the energy class.
func (d *Director) attemptMutations(feats *timeline.Features, energy int, out *config.Render) {
	if !feats.Onset || feats.BeatIntensity <= mutationBeatThreshold {
		return
	}
	if d.macros.framesSinceLast < mutationCooldownFrames {
		return
	}

	scale := 1.0
	switch energy {
	case timeline.EnergyHigh:
		scale = 1.5
	case timeline.EnergyLow:
		scale = 0.3
	}
	mi := scale * d.mutationIntensity
	intensityScale := feats.BeatIntensity
	if intensityScale < 0.5 {
		intensityScale = 0.5
	}

	fired := 0
	roll := func(p float64) bool {
		return fired < maxMutationsPerFrame && d.rng.Float64() < p*mi
	}

	// 1. Mode cycle.
	if roll(probModeCycle) {
		cur := out.RenderMode
		if d.macros.mode != nil {
			cur = *d.macros.mode
		}
		next := modeCycle[0]
		for i, m := range modeCycle {
			if m == cur {
				next = modeCycle[(i+1)%len(modeCycle)]
				break
			}
		}
		d.macros.mode = &next
		d.macros.modeCountdown = modeOverrideFrames
		fired++
	}

	// 2. Charset rotation.
	if roll(probCharsetRotate) {
		cur := out.CharsetIndex
		if d.macros.haveCharset {
			cur = d.macros.charsetIndex
		}
		next := (cur + 1) % len(config.CharsetPool)
		d.macros.charset = config.CharsetPool[next]
		d.macros.charsetIndex = next
		d.macros.haveCharset = true
		fired++
	}

	// 3. Effect burst.
	if roll(probEffectBurst) {
		amplitudes := [6]float64{1.5, 2.5, 0.4, 2.0, 0.8, 0.7}
		id := d.rng.Intn(6)
		d.macros.effectBurstID = id
		d.macros.effectBurst = newSmoothOverride(amplitudes[id]*intensityScale, effectBurstFrames, mutationRampFrames)
		fired++
	}

	// 4. Density pulse.
	if roll(probDensityPulse) {
		target := 0.4 + d.rng.Float64()*2.1
		d.macros.density = newSmoothOverride(target, densityPulseFrames, 8)
		fired++
	}

	// 5. Color mode cycle.
	if roll(probColorModeCycle) {
		cur := out.ColorMode
		if d.macros.colorMode != nil {
			cur = *d.macros.colorMode
		}
		next := colorModeCycle[(int(cur)+1)%len(colorModeCycle)]
		d.macros.colorMode = &next
		d.macros.colorModeCountdown = modeOverrideFrames
		fired++
	}

	// 6. Invert flash.
	if roll(probInvertFlash) {
		cur := out.Invert
		if d.macros.invert != nil {
			cur = *d.macros.invert
		}
		d.macros.invert = boolPtr(!cur)
		d.macros.invertCountdown = invertFlashFrames
		fired++
	}

	// 7. Camera burst, only on the strongest beats.
	if feats.BeatIntensity > cameraBeatThreshold && roll(probCameraBurst) {
		variant := d.rng.Intn(4)
		var value float64
		duration := 60
		switch variant {
		case cameraZoom:
			value = 0.3 * intensityScale
			duration = 45
		case cameraRotation:
			value = 0.15 * intensityScale
		default:
			value = 0.3 * intensityScale
		}
		d.macros.cameraParam = variant
		d.macros.camera = newSmoothOverride(value, duration, mutationRampFrames)
		fired++
	}

	if fired > 0 {
		d.macros.framesSinceLast = 0
	}
}
