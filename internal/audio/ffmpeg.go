package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// decodeViaFFmpeg extracts audio from any container ffmpeg understands and
// yields mono float32 samples at the reference rate. Used for AAC and
// formats without a native Go decoder.
func decodeViaFFmpeg(path string) ([]float64, int, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, 0, fmt.Errorf("ffmpeg not found (required for this audio format)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-v", "quiet",
		"-i", path,
		"-vn",
		"-ar", strconv.Itoa(ReferenceSampleRate),
		"-ac", "1",
		"-f", "f32le",
		"pipe:1",
	)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("setting up ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("starting ffmpeg: %w", err)
	}

	samples := make([]float64, 0, ReferenceSampleRate*60)
	buf := make([]byte, 65536)
	carry := 0
	for {
		n, rerr := stdout.Read(buf[carry:])
		n += carry
		carry = 0
		i := 0
		for ; i+4 <= n; i += 4 {
			bits := binary.LittleEndian.Uint32(buf[i:])
			samples = append(samples, float64(math.Float32frombits(bits)))
		}
		// Keep a partial sample for the next read.
		if i < n {
			copy(buf, buf[i:n])
			carry = n - i
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			cmd.Wait()
			return nil, 0, fmt.Errorf("reading ffmpeg output: %w", rerr)
		}
	}

	if err := cmd.Wait(); err != nil {
		return nil, 0, fmt.Errorf("ffmpeg decode: %w", err)
	}
	return samples, ReferenceSampleRate, nil
}
