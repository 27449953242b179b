// Package errs defines the error taxonomy shared by the export pipeline.
//
// The shell translates these into process exit codes; the core only wraps
// and propagates them.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel classes. Wrap with fmt.Errorf("...: %w", errs.AudioDecode) and
// test with errors.Is.
var (
	// Config marks an invalid configuration value or structure.
	Config = errors.New("invalid configuration")
	// FileNotFound marks a referenced file that does not exist.
	FileNotFound = errors.New("file not found")
	// UnsupportedFormat marks a container or codec the core cannot decode.
	UnsupportedFormat = errors.New("unsupported format")
	// InvalidDimensions marks a zero or degenerate width/height pair.
	InvalidDimensions = errors.New("invalid dimensions")
	// AudioDecode marks a terminal audio decoder failure.
	AudioDecode = errors.New("audio decode failed")
	// VideoDecode marks a video decoder failure (recoverable per clip).
	VideoDecode = errors.New("video decode failed")
	// EncoderPipe marks the downstream encoder pipe closing mid-export.
	EncoderPipe = errors.New("encoder pipe closed")
)

// Configf wraps Config with a formatted detail message.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", Config, fmt.Sprintf(format, args...))
}

// NotFound wraps FileNotFound with the offending path.
func NotFound(path string) error {
	return fmt.Errorf("%w: %s", FileNotFound, path)
}

// Unsupported wraps UnsupportedFormat with the offending format string.
func Unsupported(format string) error {
	return fmt.Errorf("%w: %s", UnsupportedFormat, format)
}

// Dimensions wraps InvalidDimensions with the offending pair.
func Dimensions(width, height int) error {
	return fmt.Errorf("%w: %dx%d", InvalidDimensions, width, height)
}
