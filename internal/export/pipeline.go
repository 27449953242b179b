package export

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvasseur/asciibeat/internal/audio"
	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/director"
	"github.com/mvasseur/asciibeat/internal/errs"
	"github.com/mvasseur/asciibeat/internal/render"
	"github.com/mvasseur/asciibeat/internal/source"
	"github.com/mvasseur/asciibeat/internal/util"
)

// Options carries the export parameters the shell resolved from flags.
type Options struct {
	Files     []string // ordered media list
	AudioPath string
	Output    string

	Config config.Render

	FPS     int // 30 or 60
	TargetW int // output pixel budget; grid dims derive from it
	TargetH int

	ExportScale float64 // font size in pixels; sets the cell size
	FontPath    string

	Seed    int64
	HasSeed bool

	MutationIntensity float64
	CrossfadeMs       int     // 0 = energy-adaptive
	PresetDuration    float64 // seconds; 0 = default 15
	Presets           []director.Preset
	MultiPreset       bool

	Progress bool // draw an interactive progress bar
}

// deriveSeed hashes the input identity so unseeded runs are still
// reproducible for identical inputs.
func deriveSeed(opts *Options) int64 {
	h := fnv.New64a()
	h.Write([]byte(opts.AudioPath))
	for _, f := range opts.Files {
		h.Write([]byte(f))
	}
	return int64(h.Sum64())
}

// Run executes the offline export: analyze audio, then synchronously
// decode, direct, composite, post-process, rasterize and encode each
// frame in strict monotonic order.
func Run(opts Options) error {
	if opts.FPS != 60 {
		opts.FPS = 30
	}
	if opts.TargetW < 16 || opts.TargetH < 16 {
		return errs.Dimensions(opts.TargetW, opts.TargetH)
	}
	if opts.AudioPath == "" {
		return errs.Configf("no audio file given or discovered")
	}
	if !opts.HasSeed {
		opts.Seed = deriveSeed(&opts)
	}
	opts.Config.ClampAll()
	opts.Config.TargetFPS = opts.FPS

	// Step 1: whole-track audio analysis. Must finish before any frame.
	log.Printf("export: step 1/4 analyzing audio %s", opts.AudioPath)
	analyzer, err := audio.NewAnalyzer(opts.FPS)
	if err != nil {
		return err
	}
	tl, err := analyzer.AnalyzeFile(opts.AudioPath)
	if err != nil {
		return err
	}
	totalFrames := tl.TotalFrames()
	if totalFrames == 0 {
		return errs.Configf("audio produced an empty timeline")
	}

	var presetSeq *director.PresetSequencer
	if opts.MultiPreset {
		presetSeq = director.NewPresetSequencer(opts.Presets, opts.PresetDuration, opts.FPS)
		if presetSeq == nil {
			log.Printf("export: fewer than two presets; multi-preset mode off")
		}
	}
	dir := director.New(opts.Config, tl, opts.Seed, opts.FPS, opts.MutationIntensity, presetSeq)

	// Geometry: grid dims from the base config, source frames at the
	// largest topology factor so every render mode can sample them.
	gridW, gridH := render.GridSize(opts.TargetW, opts.TargetH, &opts.Config)
	srcW, srcH := gridW*2, gridH*4

	// Step 2: media sequencing.
	log.Printf("export: step 2/4 opening %d media files", len(opts.Files))
	seq, err := source.NewSequencer(opts.Files, srcW, srcH, opts.FPS, totalFrames)
	if err != nil {
		return err
	}
	defer seq.Close()

	// Step 3: render pipeline setup.
	fontPath := opts.FontPath
	if fontPath == "" {
		if fontPath, err = FindFont(); err != nil {
			return err
		}
	}
	scale := opts.ExportScale
	if scale <= 0 {
		scale = 16
	}
	rast, err := NewRasterizer(fontPath, scale)
	if err != nil {
		return err
	}
	rasterW, rasterH := rast.TargetDimensions(gridW, gridH)
	log.Printf("export: step 3/4 grid %dx%d, raster %dx%d @ %d fps", gridW, gridH, rasterW, rasterH, opts.FPS)

	tempVideo := opts.Output + ".video.tmp.mp4"
	enc, err := NewEncoder(tempVideo, rasterW, rasterH, opts.FPS)
	if err != nil {
		return err
	}

	compositor := render.NewCompositor(opts.Config.Charset)
	compositor.SetReferenceDensity(opts.Config.DensityScale)
	chain := render.NewEffectChain(gridW, gridH)
	var camera render.Camera

	grid := render.NewGrid(gridW, gridH)
	warped := render.NewFrame(srcW, srcH)
	rgb := make([]uint8, rasterW*rasterH*3)
	frameCfg := config.Default()

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.Default(int64(totalFrames), "rendering")
	}

	frameDur := 1.0 / float64(opts.FPS)
	prevMode := opts.Config.RenderMode
	start := time.Now()
	brokenPipe := false

	for t := 0; t < totalFrames; t++ {
		dir.ConfigAt(t, &frameCfg)
		feats := tl.At(t)

		// Temporal state does not survive a render-mode discontinuity.
		if frameCfg.RenderMode != prevMode {
			chain.Reset()
			prevMode = frameCfg.RenderMode
		}

		// Clip sequencing, paced by energy and strong onsets.
		if dir.ShouldAdvanceClip(t, seq.ClipFrames(), seq.MaxClipFrames()) {
			if opts.CrossfadeMs > 0 {
				seq.SetCrossfadeDuration(maxInt(opts.CrossfadeMs*opts.FPS/1000, 1))
			} else {
				seq.SetCrossfadeDuration(dir.CrossfadeFrames(t))
			}
			seq.Advance()
		}

		src := seq.NextFrame()

		// Virtual camera warps source pixels before composition.
		if camera.Identity(&frameCfg) {
			warped.CopyFrom(src)
		} else {
			camera.Apply(&frameCfg, src, warped)
		}

		compositor.Process(warped, &frameCfg, grid)
		chain.Apply(grid, &frameCfg, &feats, frameDur, compositor.LUT().Density)

		linear := frameCfg.ColorMode == config.ColorOklab
		if err := rast.Render(grid, frameCfg.ZalgoIntensity, t, linear, rgb); err != nil {
			return err
		}

		if err := enc.WriteFrame(rgb); err != nil {
			// Downstream closed: finish cleanly after the current frame.
			log.Printf("export: %v", err)
			brokenPipe = true
			break
		}

		if bar != nil {
			bar.Add(1)
		}
		if t > 0 && t%100 == 0 {
			elapsed := time.Since(start).Seconds()
			actual := float64(t) / elapsed
			eta := float64(totalFrames-t) / actual
			log.Printf("export: frame %d/%d (%.1f%%), %.1f fps, ETA %.0fs",
				t, totalFrames, float64(t)/float64(totalFrames)*100, actual, eta)
		}
	}

	if err := enc.Finish(); err != nil && !brokenPipe {
		return err
	}
	if brokenPipe {
		os.Remove(tempVideo)
		return errs.EncoderPipe
	}

	// Step 4: mux the source audio into the final container.
	log.Printf("export: step 4/4 muxing audio into %s", opts.Output)
	if err := MuxAudio(tempVideo, opts.AudioPath, opts.Output); err != nil {
		os.Remove(tempVideo)
		return err
	}
	os.Remove(tempVideo)

	log.Printf("export: wrote %s (%d frames in %s)", opts.Output, totalFrames, util.FormatDuration(time.Since(start)))
	return nil
}

// DefaultOutputName builds <folder>_<timestamp>.mp4 for unnamed exports.
func DefaultOutputName(folderName string) string {
	return fmt.Sprintf("%s_%s.mp4", folderName, time.Now().Format("20060102_150405"))
}

// IsEncoderPipe reports whether an export failure came from the encoder
// side, for exit-code translation by the shell.
func IsEncoderPipe(err error) bool {
	return errors.Is(err, errs.EncoderPipe)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
