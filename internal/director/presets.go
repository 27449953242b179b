package director

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvasseur/asciibeat/internal/config"
)

// minPresetHoldSeconds prevents energy transitions from thrashing presets.
const minPresetHoldSeconds = 5.0

// Preset is a named render configuration.
type Preset struct {
	Name   string
	Config config.Render
}

// LoadPresets reads every *.toml under dir, sorted by filename. Presets
// that fail to parse are skipped with a warning.
func LoadPresets(dir string) []Preset {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("director: presets directory unavailable: %v", err)
		return nil
	}

	var presets []Preset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".toml")
		cfg, err := config.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Printf("director: skipping preset %s: %v", name, err)
			continue
		}
		presets = append(presets, Preset{Name: name, Config: cfg})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}

// PresetSequencer cycles through the preset library, advancing on energy
// transitions or duration expiry, and interpolating between neighboring
// presets with smoothstep-eased progress.
type PresetSequencer struct {
	presets []Preset
	current int

	framesAtCurrent int
	durationFrames  int
	prevEnergy      int

	// Transition state.
	transitioning bool
	from          config.Render
	toIdx         int
	progress      float64
	progressStep  float64
}

// NewPresetSequencer needs at least two presets to be useful; fewer
// returns nil and the caller falls back to single-config mode.
func NewPresetSequencer(presets []Preset, durationSeconds float64, fps int) *PresetSequencer {
	if len(presets) < 2 {
		return nil
	}
	if durationSeconds <= 0 {
		durationSeconds = 15
	}
	return &PresetSequencer{
		presets:        presets,
		durationFrames: int(durationSeconds * float64(fps)),
		prevEnergy:     1,
	}
}

// CurrentName returns the active preset's name.
func (p *PresetSequencer) CurrentName() string {
	return p.presets[p.current].Name
}

// Step advances one frame and writes the (possibly interpolated)
// configuration into out.
func (p *PresetSequencer) Step(energy, fps int, out *config.Render) {
	p.framesAtCurrent++

	if !p.transitioning && p.shouldChange(energy, fps) {
		p.begin(energy, fps)
	}

	if !p.transitioning {
		*out = p.presets[p.current].Config
		return
	}

	p.progress += p.progressStep
	if p.progress >= 1 {
		p.current = p.toIdx
		p.transitioning = false
		p.framesAtCurrent = 0
		*out = p.presets[p.current].Config
		return
	}
	Interpolate(&p.from, &p.presets[p.toIdx].Config, p.progress, out)
}

// shouldChange triggers on an energy-class transition (after a minimum
// hold) or on duration expiry.
func (p *PresetSequencer) shouldChange(energy, fps int) bool {
	minFrames := int(minPresetHoldSeconds * float64(fps))
	energyChanged := energy != p.prevEnergy && p.framesAtCurrent >= minFrames
	p.prevEnergy = energy

	return energyChanged || p.framesAtCurrent >= p.durationFrames
}

// begin starts a transition to the next preset, faster in high energy.
func (p *PresetSequencer) begin(energy, fps int) {
	var durFrames int
	switch energy {
	case 2:
		durFrames = fps
	case 0:
		durFrames = fps * 3
	default:
		durFrames = fps * 2
	}
	p.from = p.presets[p.current].Config
	p.toIdx = (p.current + 1) % len(p.presets)
	p.progress = 0
	p.progressStep = 1 / float64(maxInt(durFrames, 1))
	p.transitioning = true
	log.Printf("director: preset transition %s → %s", p.presets[p.current].Name, p.presets[p.toIdx].Name)
}

// Interpolate blends two configurations at progress t ∈ [0,1]: numeric
// fields lerp with smoothstep easing, discrete fields snap at t = 0.5.
func Interpolate(from, to *config.Render, t float64, out *config.Render) {
	s := smoothstep(t)
	lerp := func(a, b float64) float64 { return a + (b-a)*s }

	*out = *from

	out.AspectRatio = lerp(from.AspectRatio, to.AspectRatio)
	out.DensityScale = lerp(from.DensityScale, to.DensityScale)
	out.Contrast = lerp(from.Contrast, to.Contrast)
	out.Brightness = lerp(from.Brightness, to.Brightness)
	out.Saturation = lerp(from.Saturation, to.Saturation)
	out.EdgeThreshold = lerp(from.EdgeThreshold, to.EdgeThreshold)
	out.EdgeMix = lerp(from.EdgeMix, to.EdgeMix)
	out.FadeDecay = lerp(from.FadeDecay, to.FadeDecay)
	out.GlowIntensity = lerp(from.GlowIntensity, to.GlowIntensity)
	out.ZalgoIntensity = lerp(from.ZalgoIntensity, to.ZalgoIntensity)
	out.BeatFlashIntensity = lerp(from.BeatFlashIntensity, to.BeatFlashIntensity)
	out.ChromaticOffset = lerp(from.ChromaticOffset, to.ChromaticOffset)
	out.WaveAmplitude = lerp(from.WaveAmplitude, to.WaveAmplitude)
	out.WaveSpeed = lerp(from.WaveSpeed, to.WaveSpeed)
	out.ColorPulseSpeed = lerp(from.ColorPulseSpeed, to.ColorPulseSpeed)
	out.ScanlineDarken = lerp(from.ScanlineDarken, to.ScanlineDarken)
	out.StrobeDecay = lerp(from.StrobeDecay, to.StrobeDecay)
	out.TemporalStability = lerp(from.TemporalStability, to.TemporalStability)
	out.CameraZoomAmplitude = lerp(from.CameraZoomAmplitude, to.CameraZoomAmplitude)
	out.CameraRotation = lerp(from.CameraRotation, to.CameraRotation)
	out.CameraPanX = lerp(from.CameraPanX, to.CameraPanX)
	out.CameraPanY = lerp(from.CameraPanY, to.CameraPanY)
	out.AudioSmoothing = lerp(from.AudioSmoothing, to.AudioSmoothing)
	out.AudioSensitivity = lerp(from.AudioSensitivity, to.AudioSensitivity)

	if t >= 0.5 {
		out.RenderMode = to.RenderMode
		out.ColorMode = to.ColorMode
		out.DitherMode = to.DitherMode
		out.BgStyle = to.BgStyle
		out.Charset = to.Charset
		out.CharsetIndex = to.CharsetIndex
		out.Invert = to.Invert
		out.ColorEnabled = to.ColorEnabled
		out.ShapeMatching = to.ShapeMatching
		out.ScanlineGap = to.ScanlineGap
		out.Fullscreen = to.Fullscreen
		out.ShowSpectrum = to.ShowSpectrum
		out.AudioMappings = to.AudioMappings
	}
}
