// Package audio decodes an audio track to mono float samples and analyzes
// it into a frame-indexed feature timeline.
package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/mvasseur/asciibeat/internal/errs"
)

// ReferenceSampleRate is the analysis rate. Tracks at other rates are
// linearly resampled; 48 kHz is accepted as-is.
const ReferenceSampleRate = 44100

// DecodeFile decodes any supported audio file to mono float64 samples.
// Native Go decoders handle mp3/wav/flac/ogg; everything else goes through
// the ffmpeg fallback. Returns the samples and their sample rate (44100 or
// 48000).
func DecodeFile(path string) ([]float64, int, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, 0, errs.NotFound(path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		samples []float64
		rate    int
		err     error
	)
	switch ext {
	case ".mp3":
		samples, rate, err = decodeMP3(path)
	case ".wav":
		samples, rate, err = decodeWAV(path)
	case ".flac":
		samples, rate, err = decodeFLAC(path)
	case ".ogg":
		samples, rate, err = decodeOGG(path)
	default:
		samples, rate, err = decodeViaFFmpeg(path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", errs.AudioDecode, path, err)
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("%w: %s: no samples decoded", errs.AudioDecode, path)
	}

	if rate != ReferenceSampleRate && rate != 48000 {
		log.Printf("audio: resampling %d Hz → %d Hz", rate, ReferenceSampleRate)
		samples = resampleLinear(samples, rate, ReferenceSampleRate)
		rate = ReferenceSampleRate
	}
	return samples, rate, nil
}

// decodeMP3 reads the full stream as 16-bit stereo PCM at the file's own
// sample rate and mixes it down.
func decodeMP3(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, err
	}

	rate := dec.SampleRate()
	samples := make([]float64, 0, dec.Length()/4)
	buf := make([]byte, 32768)
	for {
		n, err := dec.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			l := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
			r := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
			samples = append(samples, (float64(l)+float64(r))/(2*32768))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return samples, rate, nil
}

func decodeWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, 0, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples = append(samples, sum/float64(channels))
	}
	return samples, buf.Format.SampleRate, nil
}

func decodeFLAC(path string) ([]float64, int, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	scale := float64(int64(1) << (info.BitsPerSample - 1))
	samples := make([]float64, 0, info.NSamples)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		n := int(frame.Subframes[0].NSamples)
		for i := 0; i < n; i++ {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i]) / scale
			}
			samples = append(samples, sum/float64(channels))
		}
	}
	return samples, int(info.SampleRate), nil
}

func decodeOGG(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	samples := make([]float64, 0, reader.Length())
	buf := make([]float32, 8192)
	for {
		n, err := reader.Read(buf)
		for i := 0; i+channels <= n; i += channels {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				sum += float64(buf[i+ch])
			}
			samples = append(samples, sum/float64(channels))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return samples, reader.SampleRate(), nil
}

// resampleLinear converts samples between rates with simple linear
// interpolation. Adequate for feature analysis.
func resampleLinear(in []float64, from, to int) []float64 {
	if from == to || len(in) == 0 {
		return in
	}
	ratio := float64(from) / float64(to)
	outLen := int(float64(len(in)) / ratio)
	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j+1 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
