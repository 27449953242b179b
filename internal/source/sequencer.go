package source

import (
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/mvasseur/asciibeat/internal/errs"
	"github.com/mvasseur/asciibeat/internal/render"
)

// Recognized media extensions.
var (
	imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".gif": true}
	videoExts = map[string]bool{".mp4": true, ".mkv": true, ".mov": true, ".webm": true, ".avi": true}
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".flac": true, ".ogg": true, ".aac": true}
)

// ScanFolder recursively collects recognized media files in sorted order.
// Discovery belongs to the shell; the sequencer itself takes the list.
func ScanFolder(folder string) ([]string, error) {
	var files []string
	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if imageExts[ext] || videoExts[ext] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NotFound(folder)
	}
	sort.Strings(files)
	return files, nil
}

// FindAudio returns the first audio file in a folder, or "".
func FindAudio(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(folder, names[0])
}

// Sequencer walks the ordered media list, decoding the current clip into a
// pre-allocated RGBA frame at target dimensions and crossfading between
// clips. Clip pacing (budget, crossfade duration) is steered per frame by
// the caller.
type Sequencer struct {
	files []string
	idx   int
	fps   int

	clipFrames    int
	maxClipFrames int

	crossfadeDuration  int
	crossfadeRemaining int

	still *image.NRGBA // current still, pre-resized
	gif   *gifClip
	video *videoClip

	frame      *render.Frame // raw decode target
	prev       *render.Frame // outgoing clip snapshot for the crossfade
	out        *render.Frame // blended output
	allFailed  bool
	warnedFail bool
}

// NewSequencer creates a sequencer over an ordered file list. totalFrames
// sets the proportional clip budget (totalFrames / file count).
func NewSequencer(files []string, targetW, targetH, fps, totalFrames int) (*Sequencer, error) {
	if targetW < 1 || targetH < 1 {
		return nil, errs.Dimensions(targetW, targetH)
	}
	if len(files) == 0 {
		return nil, errs.Configf("no media files to sequence")
	}

	budget := totalFrames / len(files)
	if budget < 1 {
		budget = 1
	}
	s := &Sequencer{
		files:             files,
		fps:               fps,
		maxClipFrames:     budget,
		crossfadeDuration: maxInt(fps/2, 1),
		frame:             render.NewFrame(targetW, targetH),
		prev:              render.NewFrame(targetW, targetH),
		out:               render.NewFrame(targetW, targetH),
	}
	s.loadCurrent()
	return s, nil
}

// ClipFrames returns how many frames the current clip has produced.
func (s *Sequencer) ClipFrames() int { return s.clipFrames }

// MaxClipFrames returns the proportional per-clip frame budget.
func (s *Sequencer) MaxClipFrames() int { return s.maxClipFrames }

// SetCrossfadeDuration sets the blend length in frames for the next
// advance. The director adapts it to the energy class.
func (s *Sequencer) SetCrossfadeDuration(frames int) {
	s.crossfadeDuration = maxInt(frames, 1)
}

// Advance switches to the next media file, starting a crossfade from the
// last emitted frame.
func (s *Sequencer) Advance() {
	s.prev.CopyFrom(s.out)
	s.crossfadeRemaining = s.crossfadeDuration

	s.idx = (s.idx + 1) % len(s.files)
	s.loadCurrent()
}

// closeClip releases the current clip's resources.
func (s *Sequencer) closeClip() {
	s.still = nil
	s.gif = nil
	if s.video != nil {
		s.video.close()
		s.video = nil
	}
}

// loadCurrent opens the file at idx, skipping unreadable files. If every
// file fails, the sequencer emits black frames from then on.
func (s *Sequencer) loadCurrent() {
	s.closeClip()
	s.clipFrames = 0

	for attempts := 0; attempts < len(s.files); attempts++ {
		path := s.files[s.idx]
		if s.open(path) {
			s.allFailed = false
			return
		}
		log.Printf("source: skipping unreadable media %s", path)
		s.idx = (s.idx + 1) % len(s.files)
	}

	s.allFailed = true
	if !s.warnedFail {
		log.Printf("source: all media files failed to open; emitting black frames")
		s.warnedFail = true
	}
}

// open tries to load one media file as GIF, still or video.
func (s *Sequencer) open(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".gif" {
		clip, err := loadGIF(path)
		if err != nil {
			return false
		}
		if clip != nil {
			s.gif = clip
			return true
		}
		// Single-frame GIF: fall through to the still path.
	}

	if imageExts[ext] {
		img, err := loadStill(path)
		if err != nil {
			return false
		}
		s.still = imaging.Resize(img, s.frame.W, s.frame.H, imaging.Lanczos)
		return true
	}

	if videoExts[ext] {
		clip, err := openVideo(path, s.frame.W, s.frame.H, s.fps)
		if err != nil {
			log.Printf("source: %v", err)
			return false
		}
		s.video = clip
		return true
	}
	return false
}

// NextFrame decodes/advances the current clip and returns the output
// frame, crossfaded when a transition is active. The returned frame is
// owned by the sequencer and valid until the next call.
func (s *Sequencer) NextFrame() *render.Frame {
	if s.allFailed {
		s.out.Fill(0, 0, 0)
		return s.out
	}

	s.decodeInto(s.frame)
	s.clipFrames++

	if s.crossfadeRemaining > 0 {
		t := 1 - float64(s.crossfadeRemaining)/float64(s.crossfadeDuration)
		blendFrames(s.prev, s.frame, t, s.out)
		s.crossfadeRemaining--
		return s.out
	}

	s.out.CopyFrom(s.frame)
	return s.out
}

// decodeInto fills dst with the current clip's next frame.
func (s *Sequencer) decodeInto(dst *render.Frame) {
	switch {
	case s.gif != nil:
		img := s.gif.advance(1.0 / float64(s.fps))
		resizeInto(img, dst)
	case s.still != nil:
		copy(dst.Pix, s.still.Pix)
	case s.video != nil:
		if !s.video.nextFrame(dst) {
			// Clip ended: advance to the next file, crossfading from the
			// last emitted frame as Advance does.
			s.prev.CopyFrom(s.out)
			s.crossfadeRemaining = s.crossfadeDuration
			s.idx = (s.idx + 1) % len(s.files)
			s.loadCurrent()
			if !s.allFailed {
				s.decodeInto(dst)
			} else {
				dst.Fill(0, 0, 0)
			}
		}
	default:
		dst.Fill(0, 0, 0)
	}
}

// Close releases any decoder subprocess.
func (s *Sequencer) Close() {
	s.closeClip()
}

// blendFrames writes the per-pixel linear blend of a and b into out.
func blendFrames(a, b *render.Frame, t float64, out *render.Frame) {
	if len(a.Pix) != len(out.Pix) || len(b.Pix) != len(out.Pix) {
		out.CopyFrom(b)
		return
	}
	for i := range out.Pix {
		out.Pix[i] = uint8(float64(a.Pix[i])*(1-t) + float64(b.Pix[i])*t + 0.5)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
