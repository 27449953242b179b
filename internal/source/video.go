package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/mvasseur/asciibeat/internal/errs"
	"github.com/mvasseur/asciibeat/internal/render"
)

// videoClip decodes a video file through an ffmpeg subprocess emitting raw
// RGBA frames at the export fps and target dimensions.
type videoClip struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	buf    []byte
	w, h   int
	done   bool
}

type ffprobeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeVideo returns the native dimensions of the first video stream.
func probeVideo(path string) (w, h int, err error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: ffprobe not found", errs.VideoDecode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "v:0",
		path,
	)
	cmd.Stdin = nil

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: probing %s: %v", errs.VideoDecode, path, err)
	}

	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, 0, fmt.Errorf("%w: parsing probe of %s: %v", errs.VideoDecode, path, err)
	}
	for _, s := range result.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no video stream in %s", errs.VideoDecode, path)
}

// openVideo probes the file and spawns the decode pipe at the target
// geometry. ffmpeg paces frames by decoded timestamp; the fps filter
// provides the wall-clock fallback when the stream carries none.
func openVideo(path string, w, h, fps int) (*videoClip, error) {
	if _, _, err := probeVideo(path); err != nil {
		return nil, err
	}

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found", errs.VideoDecode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-v", "quiet",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d", w, h, fps),
		"-an",
		"pipe:1",
	)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: ffmpeg stdout pipe: %v", errs.VideoDecode, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: starting ffmpeg for %s: %v", errs.VideoDecode, path, err)
	}

	return &videoClip{
		cmd:    cmd,
		stdout: stdout,
		cancel: cancel,
		buf:    make([]byte, w*h*4),
		w:      w,
		h:      h,
	}, nil
}

// nextFrame reads one raw frame into dst. Returns false at end of stream.
func (v *videoClip) nextFrame(dst *render.Frame) bool {
	if v.done || dst.W != v.w || dst.H != v.h {
		return false
	}
	if _, err := io.ReadFull(v.stdout, v.buf); err != nil {
		v.done = true
		return false
	}
	copy(dst.Pix, v.buf)
	return true
}

// close tears down the subprocess.
func (v *videoClip) close() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.cmd != nil {
		v.cmd.Wait()
		v.cmd = nil
	}
	v.stdout = nil
	v.done = true
}
