// Package config holds the render configuration record consumed by the
// compositor, the effect chain and the generative director.
//
// A configuration is loaded once from TOML, merged over defaults and
// clamped; the per-frame effective configuration is a caller-owned copy
// the director writes into.
package config

import (
	"log"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mvasseur/asciibeat/internal/errs"
)

// RenderMode selects the pixel→glyph topology.
type RenderMode int

const (
	ModeAscii RenderMode = iota
	ModeHalfBlock
	ModeBraille
	ModeQuadrant
	ModeSextant
	ModeOctant
)

var renderModeNames = map[string]RenderMode{
	"Ascii":     ModeAscii,
	"HalfBlock": ModeHalfBlock,
	"Braille":   ModeBraille,
	"Quadrant":  ModeQuadrant,
	"Sextant":   ModeSextant,
	"Octant":    ModeOctant,
}

func (m RenderMode) String() string {
	switch m {
	case ModeHalfBlock:
		return "HalfBlock"
	case ModeBraille:
		return "Braille"
	case ModeQuadrant:
		return "Quadrant"
	case ModeSextant:
		return "Sextant"
	case ModeOctant:
		return "Octant"
	default:
		return "Ascii"
	}
}

// SubPixels returns the horizontal and vertical sub-pixel factors of the
// topology: how many source pixels one cell consumes in each axis.
func (m RenderMode) SubPixels() (w, h int) {
	switch m {
	case ModeHalfBlock:
		return 1, 2
	case ModeBraille:
		return 2, 4
	case ModeQuadrant:
		return 2, 2
	case ModeSextant:
		return 2, 3
	case ModeOctant:
		return 2, 4
	default:
		return 1, 1
	}
}

// UnmarshalText implements toml decoding for mode names.
func (m *RenderMode) UnmarshalText(text []byte) error {
	v, ok := renderModeNames[string(text)]
	if !ok {
		return errs.Configf("unknown render_mode %q", text)
	}
	*m = v
	return nil
}

// ColorMode selects the foreground color mapping.
type ColorMode int

const (
	ColorDirect ColorMode = iota
	ColorHsvBright
	ColorOklab
	ColorQuantized
)

func (c ColorMode) String() string {
	switch c {
	case ColorHsvBright:
		return "HsvBright"
	case ColorOklab:
		return "Oklab"
	case ColorQuantized:
		return "Quantized"
	default:
		return "Direct"
	}
}

// UnmarshalText implements toml decoding for color mode names.
func (c *ColorMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Direct":
		*c = ColorDirect
	case "HsvBright":
		*c = ColorHsvBright
	case "Oklab":
		*c = ColorOklab
	case "Quantized":
		*c = ColorQuantized
	default:
		return errs.Configf("unknown color_mode %q", text)
	}
	return nil
}

// DitherMode selects the ordered-dither matrix, if any.
type DitherMode int

const (
	DitherBayer8 DitherMode = iota
	DitherBlueNoise16
	DitherOff
)

// UnmarshalText implements toml decoding for dither mode names.
func (d *DitherMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Bayer8x8":
		*d = DitherBayer8
	case "BlueNoise16":
		*d = DitherBlueNoise16
	case "Off":
		*d = DitherOff
	default:
		return errs.Configf("unknown dither_mode %q", text)
	}
	return nil
}

// BgStyle selects how cell backgrounds are filled.
type BgStyle int

const (
	BgBlack BgStyle = iota
	BgSourceDim
	BgTransparent
)

// UnmarshalText implements toml decoding for background style names.
func (b *BgStyle) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Black":
		*b = BgBlack
	case "SourceDim":
		*b = BgSourceDim
	case "Transparent":
		*b = BgTransparent
	default:
		return errs.Configf("unknown bg_style %q", text)
	}
	return nil
}

// Curve shapes a mapping's source value before amount/offset are applied.
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveThreshold
	CurveSmooth
)

// UnmarshalText implements toml decoding for curve names.
func (c *Curve) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Linear":
		*c = CurveLinear
	case "Exponential":
		*c = CurveExponential
	case "Threshold":
		*c = CurveThreshold
	case "Smooth":
		*c = CurveSmooth
	default:
		return errs.Configf("unknown curve %q", text)
	}
	return nil
}

// Apply evaluates the curve at x (expected in [0,1]).
func (c Curve) Apply(x float64) float64 {
	switch c {
	case CurveExponential:
		return x * x
	case CurveThreshold:
		if x < 0.3 {
			return 0
		}
		return (x - 0.3) / 0.7
	case CurveSmooth:
		return 3*x*x - 2*x*x*x
	default:
		return x
	}
}

// AudioMapping routes one audio feature to one configuration field.
type AudioMapping struct {
	Enabled bool    `toml:"enabled"`
	Source  string  `toml:"source"`
	Target  string  `toml:"target"`
	Amount  float64 `toml:"amount"`
	Offset  float64 `toml:"offset"`
	Curve   Curve   `toml:"curve"`
	// Smoothing is the per-mapping EMA alpha in [0,1]. Negative means
	// "unset": the global audio smoothing applies instead.
	Smoothing float64 `toml:"smoothing"`
}

// Render is the complete render configuration. Field comments give the
// clamp range enforced by ClampAll.
type Render struct {
	RenderMode   RenderMode `toml:"render_mode"`
	Charset      string     `toml:"charset"`
	CharsetIndex int        `toml:"charset_index"`
	Invert       bool       `toml:"invert"`
	ColorEnabled bool       `toml:"color_enabled"`
	ColorMode    ColorMode  `toml:"color_mode"`
	DitherMode   DitherMode `toml:"dither_mode"`
	BgStyle      BgStyle    `toml:"bg_style"`

	AspectRatio  float64 `toml:"aspect_ratio"`  // [0.5, 4]
	DensityScale float64 `toml:"density_scale"` // [0.25, 4]
	Contrast     float64 `toml:"contrast"`      // [0.1, 3]
	Brightness   float64 `toml:"brightness"`    // [-1, 1]
	Saturation   float64 `toml:"saturation"`    // [0, 3]

	EdgeThreshold float64 `toml:"edge_threshold"` // [0, 1]
	EdgeMix       float64 `toml:"edge_mix"`       // [0, 1]
	ShapeMatching bool    `toml:"shape_matching"`

	FadeDecay          float64 `toml:"fade_decay"`           // [0, 1]
	GlowIntensity      float64 `toml:"glow_intensity"`       // [0, 2]
	ZalgoIntensity     float64 `toml:"zalgo_intensity"`      // [0, 5]
	BeatFlashIntensity float64 `toml:"beat_flash_intensity"` // [0, 2]
	ChromaticOffset    float64 `toml:"chromatic_offset"`     // [0, 5]
	WaveAmplitude      float64 `toml:"wave_amplitude"`       // [0, 1]
	WaveSpeed          float64 `toml:"wave_speed"`           // [0, 10]
	ColorPulseSpeed    float64 `toml:"color_pulse_speed"`    // [0, 5]
	ScanlineGap        int     `toml:"scanline_gap"`         // {0..8}
	ScanlineDarken     float64 `toml:"scanline_darken"`      // [0, 1]
	StrobeDecay        float64 `toml:"strobe_decay"`         // [0.5, 0.99]
	TemporalStability  float64 `toml:"temporal_stability"`   // [0, 1]

	CameraZoomAmplitude float64 `toml:"camera_zoom_amplitude"` // [0.1, 10]
	CameraRotation      float64 `toml:"camera_rotation"`       // radians, unbounded
	CameraPanX          float64 `toml:"camera_pan_x"`          // [-2, 2]
	CameraPanY          float64 `toml:"camera_pan_y"`          // [-2, 2]

	TargetFPS    int  `toml:"target_fps"` // 30 or 60
	Fullscreen   bool `toml:"fullscreen"`
	ShowSpectrum bool `toml:"show_spectrum"`

	AudioSmoothing   float64        `toml:"-"` // [0, 1]
	AudioSensitivity float64        `toml:"-"` // [0, 5]
	AudioMappings    []AudioMapping `toml:"-"`
}

// Default returns the documented default configuration.
func Default() Render {
	return Render{
		RenderMode:   ModeAscii,
		Charset:      CharsetFull,
		CharsetIndex: 0,
		Invert:       false,
		ColorEnabled: true,
		ColorMode:    ColorHsvBright,
		DitherMode:   DitherBayer8,
		BgStyle:      BgBlack,

		AspectRatio:  2.0,
		DensityScale: 1.0,
		Contrast:     1.0,
		Brightness:   0.0,
		Saturation:   1.2,

		EdgeThreshold: 0.3,
		EdgeMix:       0.5,
		ShapeMatching: false,

		FadeDecay:          0.3,
		GlowIntensity:      0.5,
		ZalgoIntensity:     0.0,
		BeatFlashIntensity: 0.8,
		ChromaticOffset:    0.0,
		WaveAmplitude:      0.0,
		WaveSpeed:          2.0,
		ColorPulseSpeed:    0.0,
		ScanlineGap:        0,
		ScanlineDarken:     0.4,
		StrobeDecay:        0.85,
		TemporalStability:  0.4,

		CameraZoomAmplitude: 1.0,
		CameraRotation:      0.0,
		CameraPanX:          0.0,
		CameraPanY:          0.0,

		TargetFPS:    30,
		Fullscreen:   false,
		ShowSpectrum: true,

		AudioSmoothing:   0.7,
		AudioSensitivity: 1.0,
		AudioMappings: []AudioMapping{
			{Enabled: true, Source: "bass", Target: "edge_threshold", Amount: 0.3, Curve: CurveLinear, Smoothing: -1},
			{Enabled: true, Source: "spectral_flux", Target: "contrast", Amount: 0.5, Curve: CurveLinear, Smoothing: -1},
			{Enabled: true, Source: "onset_envelope", Target: "beat_flash_intensity", Amount: 0.8, Curve: CurveSmooth, Smoothing: -1},
			{Enabled: true, Source: "rms", Target: "brightness", Amount: 0.2, Curve: CurveLinear, Smoothing: -1},
		},
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampAll silently clamps every numeric field to its valid range and pads
// degenerate charsets. Applied on every ingest path.
func (r *Render) ClampAll() {
	if len([]rune(r.Charset)) < 2 {
		r.Charset = " @"
	}
	r.AspectRatio = clampF(r.AspectRatio, 0.5, 4)
	r.DensityScale = clampF(r.DensityScale, 0.25, 4)
	r.Contrast = clampF(r.Contrast, 0.1, 3)
	r.Brightness = clampF(r.Brightness, -1, 1)
	r.Saturation = clampF(r.Saturation, 0, 3)
	r.EdgeThreshold = clampF(r.EdgeThreshold, 0, 1)
	r.EdgeMix = clampF(r.EdgeMix, 0, 1)
	r.FadeDecay = clampF(r.FadeDecay, 0, 1)
	r.GlowIntensity = clampF(r.GlowIntensity, 0, 2)
	r.ZalgoIntensity = clampF(r.ZalgoIntensity, 0, 5)
	r.BeatFlashIntensity = clampF(r.BeatFlashIntensity, 0, 2)
	r.ChromaticOffset = clampF(r.ChromaticOffset, 0, 5)
	r.WaveAmplitude = clampF(r.WaveAmplitude, 0, 1)
	r.WaveSpeed = clampF(r.WaveSpeed, 0, 10)
	r.ColorPulseSpeed = clampF(r.ColorPulseSpeed, 0, 5)
	r.ScanlineGap = clampI(r.ScanlineGap, 0, 8)
	r.ScanlineDarken = clampF(r.ScanlineDarken, 0, 1)
	r.StrobeDecay = clampF(r.StrobeDecay, 0.5, 0.99)
	r.TemporalStability = clampF(r.TemporalStability, 0, 1)
	r.CameraZoomAmplitude = clampF(r.CameraZoomAmplitude, 0.1, 10)
	r.CameraPanX = clampF(r.CameraPanX, -2, 2)
	r.CameraPanY = clampF(r.CameraPanY, -2, 2)
	if math.IsNaN(r.CameraRotation) || math.IsInf(r.CameraRotation, 0) {
		r.CameraRotation = 0
	}
	if r.TargetFPS != 60 {
		r.TargetFPS = 30
	}
	r.AudioSmoothing = clampF(r.AudioSmoothing, 0, 1)
	r.AudioSensitivity = clampF(r.AudioSensitivity, 0, 5)
	for i := range r.AudioMappings {
		m := &r.AudioMappings[i]
		m.Amount = clampF(m.Amount, -10, 10)
		m.Offset = clampF(m.Offset, -5, 5)
		if m.Smoothing >= 0 {
			m.Smoothing = clampF(m.Smoothing, 0, 1)
		}
	}
}

// ClampField clamps a single named numeric field after the director writes
// to it. Unknown names are ignored.
func (r *Render) ClampField(target string) {
	switch target {
	case "aspect_ratio":
		r.AspectRatio = clampF(r.AspectRatio, 0.5, 4)
	case "density_scale":
		r.DensityScale = clampF(r.DensityScale, 0.25, 4)
	case "contrast":
		r.Contrast = clampF(r.Contrast, 0.1, 3)
	case "brightness":
		r.Brightness = clampF(r.Brightness, -1, 1)
	case "saturation":
		r.Saturation = clampF(r.Saturation, 0, 3)
	case "edge_threshold":
		r.EdgeThreshold = clampF(r.EdgeThreshold, 0, 1)
	case "edge_mix":
		r.EdgeMix = clampF(r.EdgeMix, 0, 1)
	case "fade_decay":
		r.FadeDecay = clampF(r.FadeDecay, 0, 1)
	case "glow_intensity":
		r.GlowIntensity = clampF(r.GlowIntensity, 0, 2)
	case "zalgo_intensity":
		r.ZalgoIntensity = clampF(r.ZalgoIntensity, 0, 5)
	case "beat_flash_intensity":
		r.BeatFlashIntensity = clampF(r.BeatFlashIntensity, 0, 2)
	case "chromatic_offset":
		r.ChromaticOffset = clampF(r.ChromaticOffset, 0, 5)
	case "wave_amplitude":
		r.WaveAmplitude = clampF(r.WaveAmplitude, 0, 1)
	case "wave_speed":
		r.WaveSpeed = clampF(r.WaveSpeed, 0, 10)
	case "color_pulse_speed":
		r.ColorPulseSpeed = clampF(r.ColorPulseSpeed, 0, 5)
	case "scanline_darken":
		r.ScanlineDarken = clampF(r.ScanlineDarken, 0, 1)
	case "strobe_decay":
		r.StrobeDecay = clampF(r.StrobeDecay, 0.5, 0.99)
	case "temporal_stability":
		r.TemporalStability = clampF(r.TemporalStability, 0, 1)
	case "camera_zoom_amplitude":
		r.CameraZoomAmplitude = clampF(r.CameraZoomAmplitude, 0.1, 10)
	case "camera_pan_x":
		r.CameraPanX = clampF(r.CameraPanX, -2, 2)
	case "camera_pan_y":
		r.CameraPanY = clampF(r.CameraPanY, -2, 2)
	}
}

// file mirrors the on-disk TOML layout: a [render] table with every key
// optional, plus an optional [audio] table.
type file struct {
	Render map[string]toml.Primitive `toml:"render"`
	Audio  *audioSection             `toml:"audio"`
}

type audioSection struct {
	Smoothing   *float64       `toml:"smoothing"`
	Sensitivity *float64       `toml:"sensitivity"`
	Mappings    []AudioMapping `toml:"mappings"`
}

// Load reads a TOML config file and merges it over Default(). Unknown keys
// are ignored with a warning; every field is clamped on the way in.
func Load(path string) (Render, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errs.NotFound(path)
		}
		return cfg, errs.Configf("reading %s: %v", path, err)
	}

	var f file
	meta, err := toml.Decode(string(raw), &f)
	if err != nil {
		return cfg, errs.Configf("parsing %s: %v", path, err)
	}

	for key, prim := range f.Render {
		if err := decodeRenderKey(&cfg, meta, key, prim); err != nil {
			return cfg, err
		}
	}
	if f.Audio != nil {
		if f.Audio.Smoothing != nil {
			cfg.AudioSmoothing = *f.Audio.Smoothing
		}
		if f.Audio.Sensitivity != nil {
			cfg.AudioSensitivity = *f.Audio.Sensitivity
		}
		if f.Audio.Mappings != nil {
			for i := range f.Audio.Mappings {
				if f.Audio.Mappings[i].Smoothing == 0 {
					f.Audio.Mappings[i].Smoothing = -1
				}
			}
			cfg.AudioMappings = f.Audio.Mappings
		}
	}

	for _, undecoded := range meta.Undecoded() {
		log.Printf("config: ignoring unknown key %q in %s", undecoded.String(), path)
	}

	cfg.ClampAll()
	return cfg, nil
}

// decodeRenderKey assigns one [render] key to its field. Unknown keys are
// warned about and skipped so configs survive version drift.
func decodeRenderKey(cfg *Render, meta toml.MetaData, key string, prim toml.Primitive) error {
	dec := func(v any) error {
		if err := meta.PrimitiveDecode(prim, v); err != nil {
			return errs.Configf("render.%s: %v", key, err)
		}
		return nil
	}

	switch key {
	case "render_mode":
		return dec(&cfg.RenderMode)
	case "charset":
		return dec(&cfg.Charset)
	case "charset_index":
		return dec(&cfg.CharsetIndex)
	case "invert":
		return dec(&cfg.Invert)
	case "color_enabled":
		return dec(&cfg.ColorEnabled)
	case "color_mode":
		return dec(&cfg.ColorMode)
	case "dither_mode":
		return dec(&cfg.DitherMode)
	case "bg_style":
		return dec(&cfg.BgStyle)
	case "aspect_ratio":
		return dec(&cfg.AspectRatio)
	case "density_scale":
		return dec(&cfg.DensityScale)
	case "contrast":
		return dec(&cfg.Contrast)
	case "brightness":
		return dec(&cfg.Brightness)
	case "saturation":
		return dec(&cfg.Saturation)
	case "edge_threshold":
		return dec(&cfg.EdgeThreshold)
	case "edge_mix":
		return dec(&cfg.EdgeMix)
	case "shape_matching":
		return dec(&cfg.ShapeMatching)
	case "fade_decay":
		return dec(&cfg.FadeDecay)
	case "glow_intensity":
		return dec(&cfg.GlowIntensity)
	case "zalgo_intensity":
		return dec(&cfg.ZalgoIntensity)
	case "beat_flash_intensity":
		return dec(&cfg.BeatFlashIntensity)
	case "chromatic_offset":
		return dec(&cfg.ChromaticOffset)
	case "wave_amplitude":
		return dec(&cfg.WaveAmplitude)
	case "wave_speed":
		return dec(&cfg.WaveSpeed)
	case "color_pulse_speed":
		return dec(&cfg.ColorPulseSpeed)
	case "scanline_gap":
		return dec(&cfg.ScanlineGap)
	case "scanline_darken":
		return dec(&cfg.ScanlineDarken)
	case "strobe_decay":
		return dec(&cfg.StrobeDecay)
	case "temporal_stability":
		return dec(&cfg.TemporalStability)
	case "camera_zoom_amplitude":
		return dec(&cfg.CameraZoomAmplitude)
	case "camera_rotation":
		return dec(&cfg.CameraRotation)
	case "camera_pan_x":
		return dec(&cfg.CameraPanX)
	case "camera_pan_y":
		return dec(&cfg.CameraPanY)
	case "target_fps":
		return dec(&cfg.TargetFPS)
	case "fullscreen":
		return dec(&cfg.Fullscreen)
	case "show_spectrum":
		return dec(&cfg.ShowSpectrum)
	default:
		log.Printf("config: ignoring unknown key render.%s", key)
		return nil
	}
}
