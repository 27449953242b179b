package director

import (
	"math"
	"testing"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/timeline"
)

func TestInterpolateEndpoints(t *testing.T) {
	from := config.Default()
	from.Contrast = 1
	from.Brightness = 0
	to := config.Default()
	to.Contrast = 2
	to.Brightness = 0.5

	var out config.Render
	Interpolate(&from, &to, 0, &out)
	if math.Abs(out.Contrast-1) > 1e-9 {
		t.Fatalf("t=0 contrast = %v, want 1", out.Contrast)
	}
	Interpolate(&from, &to, 1, &out)
	if math.Abs(out.Contrast-2) > 1e-9 {
		t.Fatalf("t=1 contrast = %v, want 2", out.Contrast)
	}
	Interpolate(&from, &to, 0.5, &out)
	if math.Abs(out.Contrast-1.5) > 1e-9 {
		t.Fatalf("t=0.5 contrast = %v, want 1.5 (smoothstep midpoint)", out.Contrast)
	}
	if math.Abs(out.Brightness-0.25) > 1e-9 {
		t.Fatalf("t=0.5 brightness = %v, want 0.25", out.Brightness)
	}
}

func TestInterpolateDiscreteSnapsAtMidpoint(t *testing.T) {
	from := config.Default()
	from.RenderMode = config.ModeAscii
	to := config.Default()
	to.RenderMode = config.ModeBraille

	var out config.Render
	Interpolate(&from, &to, 0.49, &out)
	if out.RenderMode != config.ModeAscii {
		t.Fatalf("t=0.49 mode = %v, want Ascii", out.RenderMode)
	}
	Interpolate(&from, &to, 0.5, &out)
	if out.RenderMode != config.ModeBraille {
		t.Fatalf("t=0.5 mode = %v, want Braille", out.RenderMode)
	}
}

func TestPresetSequenceBrightnessRamp(t *testing.T) {
	// Two presets differing only in brightness and render mode; duration
	// 2 s at 30 fps. Over the transition, brightness follows a smoothstep
	// from 0 to 0.4 and the mode snaps at the halfway point.
	a := config.Default()
	a.Brightness = 0
	a.RenderMode = config.ModeAscii
	b := config.Default()
	b.Brightness = 0.4
	b.RenderMode = config.ModeBraille

	seq := NewPresetSequencer([]Preset{{"a", a}, {"b", b}}, 2, 30)
	if seq == nil {
		t.Fatal("sequencer should initialize with two presets")
	}

	var out config.Render
	var prev float64
	sawSnap := -1
	for frame := 0; frame < 150; frame++ {
		seq.Step(timeline.EnergyMedium, 30, &out)
		if out.Brightness < prev-1e-9 {
			t.Fatalf("frame %d: brightness regressed %v → %v", frame, prev, out.Brightness)
		}
		prev = out.Brightness
		if sawSnap < 0 && out.RenderMode == config.ModeBraille {
			sawSnap = frame
		}
	}
	if math.Abs(prev-0.4) > 1e-9 {
		t.Fatalf("final brightness = %v, want 0.4", prev)
	}
	if sawSnap < 0 {
		t.Fatal("render mode never snapped to Braille")
	}
}

func TestPresetSequencerNeedsTwo(t *testing.T) {
	if seq := NewPresetSequencer([]Preset{{"only", config.Default()}}, 15, 30); seq != nil {
		t.Fatal("one preset should disable sequencing")
	}
}
