package export

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/mvasseur/asciibeat/internal/errs"
)

// Encoder wraps the lossless ffmpeg encoder subprocess. The core writes
// raw RGB24 frames to its stdin; encoding and muxing stay external.
type Encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	closed bool
}

// NewEncoder starts the encoder for the given geometry. libx264rgb at
// crf 0 keeps the stream losslessly RGB, no chroma subsampling.
func NewEncoder(outputPath string, width, height, fps int) (*Encoder, error) {
	if width < 1 || height < 1 {
		return nil, errs.Dimensions(width, height)
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH", errs.EncoderPipe)
	}

	cmd := exec.Command(ffmpeg,
		"-y",
		"-f", "rawvideo",
		"-vcodec", "rawvideo",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-pix_fmt", "rgb24",
		"-r", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", "libx264rgb",
		"-crf", "0",
		"-preset", "veryslow",
		"-pix_fmt", "rgb24",
		"-color_range", "pc",
		"-hide_banner",
		"-loglevel", "error",
		outputPath,
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", errs.EncoderPipe, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting ffmpeg: %v", errs.EncoderPipe, err)
	}
	return &Encoder{cmd: cmd, stdin: stdin}, nil
}

// WriteFrame streams one raw RGB24 frame. A closed pipe surfaces as an
// EncoderPipe error so the export can finish the current frame and stop.
func (e *Encoder) WriteFrame(rgb []uint8) error {
	if e.closed {
		return errs.EncoderPipe
	}
	if _, err := e.stdin.Write(rgb); err != nil {
		e.closed = true
		return fmt.Errorf("%w: %v", errs.EncoderPipe, err)
	}
	return nil
}

// Finish closes the stream and waits for the encoder to exit.
func (e *Encoder) Finish() error {
	if !e.closed {
		e.stdin.Close()
		e.closed = true
	}
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("%w: encoder exited: %v", errs.EncoderPipe, err)
	}
	return nil
}

// MuxAudio merges the encoded video with the source audio track into the
// final container, then the caller removes the temp video.
func MuxAudio(videoPath, audioPath, finalPath string) error {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("%w: ffmpeg not found in PATH", errs.EncoderPipe)
	}
	cmd := exec.Command(ffmpeg,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "320k",
		"-shortest",
		"-hide_banner",
		"-loglevel", "error",
		finalPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: muxing audio: %v", errs.EncoderPipe, err)
	}
	return nil
}
