package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvasseur/asciibeat/internal/config"
	"github.com/mvasseur/asciibeat/internal/director"
	"github.com/mvasseur/asciibeat/internal/errs"
	"github.com/mvasseur/asciibeat/internal/export"
	"github.com/mvasseur/asciibeat/internal/source"
)

var exportFlags struct {
	audio       string
	output      string
	configPath  string
	fps         int
	width       int
	height      int
	scale       float64
	font        string
	seed        int64
	mutation    float64
	crossfadeMs int
	presetDur   float64
	presetAll   bool
	presetDir   string
	quiet       bool
}

func main() {
	root := &cobra.Command{
		Use:   "asciibeat",
		Short: "Audio-reactive terminal-art video renderer",
	}

	exportCmd := &cobra.Command{
		Use:   "export <media-folder>",
		Short: "Render a media folder + audio track into a lossless video",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.audio, "audio", "a", "", "audio file (default: first audio file in the folder)")
	f.StringVarP(&exportFlags.output, "output", "o", "", "output video path (default: <folder>_<timestamp>.mp4)")
	f.StringVarP(&exportFlags.configPath, "config", "c", "", "TOML render configuration")
	f.IntVar(&exportFlags.fps, "fps", 30, "target frame rate (30 or 60)")
	f.IntVar(&exportFlags.width, "width", 1280, "target output width in pixels")
	f.IntVar(&exportFlags.height, "height", 720, "target output height in pixels")
	f.Float64Var(&exportFlags.scale, "scale", 16, "glyph font size in pixels (sets the cell size)")
	f.StringVar(&exportFlags.font, "font", "", "monospace TTF font (default: probe system fonts)")
	f.Int64Var(&exportFlags.seed, "seed", -1, "deterministic seed (default: derived from inputs)")
	f.Float64Var(&exportFlags.mutation, "mutation-intensity", 1, "macro mutation probability multiplier")
	f.IntVar(&exportFlags.crossfadeMs, "crossfade", 0, "crossfade override in ms (default: energy-adaptive)")
	f.Float64Var(&exportFlags.presetDur, "preset-duration", 15, "preset duration ceiling in seconds")
	f.BoolVar(&exportFlags.presetAll, "preset-all", false, "sequence through the preset library")
	f.StringVar(&exportFlags.presetDir, "preset-dir", "config/presets", "preset library directory")
	f.BoolVarP(&exportFlags.quiet, "quiet", "q", false, "disable the progress bar")

	root.AddCommand(exportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	folder := args[0]
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return errs.NotFound(folder)
	}

	files, err := source.ScanFolder(folder)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errs.Configf("no media files in %s", folder)
	}

	audioPath := exportFlags.audio
	if audioPath == "" {
		audioPath = source.FindAudio(folder)
		if audioPath == "" {
			return errs.Configf("no audio file found in %s; pass --audio", folder)
		}
	}

	cfg := config.Default()
	if exportFlags.configPath != "" {
		if cfg, err = config.Load(exportFlags.configPath); err != nil {
			return err
		}
	}

	var presets []director.Preset
	if exportFlags.presetAll {
		presets = director.LoadPresets(exportFlags.presetDir)
		if len(presets) > 0 {
			cfg = presets[0].Config
		}
	}

	output := exportFlags.output
	if output == "" {
		output = export.DefaultOutputName(filepath.Base(filepath.Clean(folder)))
	}

	opts := export.Options{
		Files:             files,
		AudioPath:         audioPath,
		Output:            output,
		Config:            cfg,
		FPS:               exportFlags.fps,
		TargetW:           exportFlags.width,
		TargetH:           exportFlags.height,
		ExportScale:       exportFlags.scale,
		FontPath:          exportFlags.font,
		Seed:              exportFlags.seed,
		HasSeed:           exportFlags.seed >= 0,
		MutationIntensity: exportFlags.mutation,
		CrossfadeMs:       exportFlags.crossfadeMs,
		PresetDuration:    exportFlags.presetDur,
		Presets:           presets,
		MultiPreset:       exportFlags.presetAll,
		Progress:          !exportFlags.quiet,
	}

	cmd.SilenceUsage = true
	return export.Run(opts)
}

// exitCode maps the error taxonomy to process exit codes.
func exitCode(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	switch {
	case errors.Is(err, errs.Config):
		return 2
	case errors.Is(err, errs.FileNotFound):
		return 3
	case errors.Is(err, errs.UnsupportedFormat):
		return 4
	case errors.Is(err, errs.InvalidDimensions):
		return 5
	case errors.Is(err, errs.AudioDecode):
		return 6
	case errors.Is(err, errs.VideoDecode):
		return 7
	case errors.Is(err, errs.EncoderPipe):
		return 8
	default:
		return 1
	}
}
