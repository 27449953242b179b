package director

import (
	"math"
	"reflect"
	"testing"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/timeline"
)

func flatTimeline(frames int, rms float64) *timeline.Timeline {
	tl := &timeline.Timeline{FrameDuration: 1.0 / 30, SampleRate: 44100}
	tl.Frames = make([]timeline.Features, frames)
	tl.EnergyLevels = make([]int, frames)
	for i := range tl.Frames {
		tl.Frames[i].RMS = rms
		tl.EnergyLevels[i] = timeline.EnergyMedium
	}
	return tl
}

func TestMappingClampsAtMaximum(t *testing.T) {
	base := config.Default()
	base.AudioMappings = []config.AudioMapping{{
		Enabled: true,
		Source:  "rms",
		Target:  "contrast",
		Amount:  1000, // clamped to 10 on ingest
		Curve:   config.CurveLinear,
	}}
	tl := flatTimeline(10, 1.0)

	d := New(base, tl, 42, 30, 1, nil)
	var out config.Render
	d.ConfigAt(0, &out)

	if out.Contrast != 3 {
		t.Fatalf("contrast = %v, want clamped maximum 3", out.Contrast)
	}
}

func TestNoMutationsWithoutOnsets(t *testing.T) {
	base := config.Default()
	tl := flatTimeline(300, 0.2)
	d := New(base, tl, 7, 30, 1, nil)

	var out config.Render
	for i := 0; i < 300; i++ {
		d.ConfigAt(i, &out)
		if out.RenderMode != base.RenderMode {
			t.Fatalf("frame %d: render mode mutated without an onset", i)
		}
		if out.Charset != base.Charset {
			t.Fatalf("frame %d: charset mutated without an onset", i)
		}
	}
}

func TestDeterminismSameSeed(t *testing.T) {
	base := config.Default()
	tl := flatTimeline(600, 0.3)
	// Strong onsets every second so mutations get a chance to fire.
	for i := 0; i < 600; i += 30 {
		tl.Frames[i].Onset = true
		tl.Frames[i].BeatIntensity = 1
		tl.EnergyLevels[i] = timeline.EnergyHigh
	}

	run := func(seed int64) []config.Render {
		d := New(base, tl, seed, 30, 1, nil)
		outs := make([]config.Render, 600)
		for i := range outs {
			d.ConfigAt(i, &outs[i])
			outs[i].AudioMappings = nil // slices share backing; compare values only
		}
		return outs
	}

	a := run(42)
	b := run(42)
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			t.Fatalf("frame %d differs between identical-seed runs", i)
		}
	}
}

func TestConfigAlwaysWithinClampRanges(t *testing.T) {
	base := config.Default()
	base.AudioMappings = append(base.AudioMappings, config.AudioMapping{
		Enabled: true, Source: "peak", Target: "saturation", Amount: 10, Offset: 5,
		Curve: config.CurveExponential,
	})
	tl := flatTimeline(300, 0.9)
	for i := range tl.Frames {
		tl.Frames[i].Peak = 1
		if i%60 == 0 {
			tl.Frames[i].Onset = true
			tl.Frames[i].BeatIntensity = 1
		}
	}

	d := New(base, tl, 1, 30, 1, nil)
	var out config.Render
	for i := 0; i < 300; i++ {
		d.ConfigAt(i, &out)
		if out.Saturation < 0 || out.Saturation > 3 {
			t.Fatalf("frame %d: saturation %v out of range", i, out.Saturation)
		}
		if out.Contrast < 0.1 || out.Contrast > 3 {
			t.Fatalf("frame %d: contrast %v out of range", i, out.Contrast)
		}
		if out.DensityScale < 0.25 || out.DensityScale > 4 {
			t.Fatalf("frame %d: density %v out of range", i, out.DensityScale)
		}
	}
}

func TestSmoothOverrideSchedule(t *testing.T) {
	o := newSmoothOverride(2, 60, 12)
	if v := o.value(); v > 0.01 {
		t.Fatalf("frame 0 value = %v, want ≈0", v)
	}
	for i := 0; i < 12; i++ {
		o.tick()
	}
	if v := o.value(); math.Abs(v-2) > 0.01 {
		t.Fatalf("post-ramp value = %v, want 2", v)
	}
	for i := 0; i < 18; i++ {
		o.tick()
	}
	if v := o.value(); math.Abs(v-2) > 1e-9 {
		t.Fatalf("hold value = %v, want exactly 2", v)
	}
	for i := 0; i < 28; i++ {
		o.tick()
	}
	if v := o.value(); v > 1.5 {
		t.Fatalf("ramp-down value = %v, want < 1.5", v)
	}
}

func TestCrossfadeEnergyAdaptive(t *testing.T) {
	tl := flatTimeline(3, 0.5)
	tl.EnergyLevels = []int{timeline.EnergyHigh, timeline.EnergyMedium, timeline.EnergyLow}
	d := New(config.Default(), tl, 0, 30, 1, nil)

	if got := d.CrossfadeFrames(0); got != 7 {
		t.Errorf("high energy crossfade = %d frames, want 7 (~250 ms)", got)
	}
	if got := d.CrossfadeFrames(1); got != 15 {
		t.Errorf("medium energy crossfade = %d frames, want 15", got)
	}
	if got := d.CrossfadeFrames(2); got != 30 {
		t.Errorf("low energy crossfade = %d frames, want 30", got)
	}
}

func TestClipBudgetScaling(t *testing.T) {
	tl := flatTimeline(3, 0.5)
	tl.EnergyLevels = []int{timeline.EnergyHigh, timeline.EnergyMedium, timeline.EnergyLow}
	d := New(config.Default(), tl, 0, 30, 1, nil)

	if got := d.ClipBudget(0, 100); got != 50 {
		t.Errorf("high energy budget = %d, want 50", got)
	}
	if got := d.ClipBudget(1, 100); got != 100 {
		t.Errorf("medium energy budget = %d, want 100", got)
	}
	if got := d.ClipBudget(2, 100); got != 150 {
		t.Errorf("low energy budget = %d, want 150", got)
	}
}
