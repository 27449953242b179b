package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvasseur/asciibeat/internal/render"
)

func newSolid(w, h int, v uint8) *render.Frame {
	f := render.NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestScanFolderFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{G: 255, A: 255})
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("x"), 0o644)

	files, err := ScanFolder(dir)
	if err != nil {
		t.Fatalf("ScanFolder() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d media files, want 2: %v", len(files), files)
	}
	// Sorted order.
	if filepath.Base(files[0]) != "a.png" || filepath.Base(files[1]) != "b.png" {
		t.Fatalf("files not sorted: %v", files)
	}
}

func TestFindAudioPicksFirst(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "z.mp3"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "a.wav"), []byte("x"), 0o644)

	got := FindAudio(dir)
	if filepath.Base(got) != "a.wav" {
		t.Fatalf("FindAudio = %q, want a.wav", got)
	}
	if FindAudio(filepath.Join(dir, "missing")) != "" {
		t.Fatal("FindAudio on a missing dir should be empty")
	}
}

func TestSequencerStillImageRepeats(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "red.png"), color.RGBA{R: 200, A: 255})

	files, _ := ScanFolder(dir)
	seq, err := NewSequencer(files, 16, 16, 30, 90)
	if err != nil {
		t.Fatalf("NewSequencer() error = %v", err)
	}
	defer seq.Close()

	f1 := seq.NextFrame()
	if f1.Pix[0] < 150 {
		t.Fatalf("decoded red = %d, want ≈200", f1.Pix[0])
	}
	f2 := seq.NextFrame()
	if f2.Pix[0] != f1.Pix[0] {
		t.Fatal("still image should repeat identically")
	}
	if seq.ClipFrames() != 2 {
		t.Fatalf("ClipFrames = %d, want 2", seq.ClipFrames())
	}
}

func TestSequencerCrossfadeBlends(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a_red.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "b_green.png"), color.RGBA{G: 255, A: 255})

	files, _ := ScanFolder(dir)
	seq, err := NewSequencer(files, 8, 8, 30, 60)
	if err != nil {
		t.Fatal(err)
	}
	defer seq.Close()

	seq.NextFrame() // establish the red output
	seq.SetCrossfadeDuration(10)
	seq.Advance()

	f := seq.NextFrame() // first blend frame: mostly red still
	r0, g0 := f.Pix[0], f.Pix[1]
	for i := 0; i < 8; i++ {
		f = seq.NextFrame()
	}
	if f.Pix[0] >= r0 || f.Pix[1] <= g0 {
		t.Fatalf("crossfade not progressing: red %d→%d green %d→%d", r0, f.Pix[0], g0, f.Pix[1])
	}

	// After the fade completes, pure green.
	for i := 0; i < 4; i++ {
		f = seq.NextFrame()
	}
	if f.Pix[0] > 10 || f.Pix[1] < 200 {
		t.Fatalf("post-fade frame not green: R=%d G=%d", f.Pix[0], f.Pix[1])
	}
}

func TestSequencerAllFilesFailing(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644)

	seq, err := NewSequencer([]string{filepath.Join(dir, "broken.png")}, 8, 8, 30, 30)
	if err != nil {
		t.Fatalf("NewSequencer() error = %v", err)
	}
	defer seq.Close()

	f := seq.NextFrame()
	for i, b := range f.Pix {
		if i%4 != 3 && b != 0 {
			t.Fatalf("expected black frame, byte %d = %d", i, b)
		}
	}
}

func TestBlendFramesEndpoints(t *testing.T) {
	fa := newSolid(4, 4, 0)
	fb := newSolid(4, 4, 255)
	out := newSolid(4, 4, 7)

	blendFrames(fa, fb, 0, out)
	if out.Pix[0] != 0 {
		t.Fatalf("t=0 blend = %d, want 0", out.Pix[0])
	}
	blendFrames(fa, fb, 1, out)
	if out.Pix[0] != 255 {
		t.Fatalf("t=1 blend = %d, want 255", out.Pix[0])
	}
	blendFrames(fa, fb, 0.5, out)
	if d := int(out.Pix[0]) - 127; d < -1 || d > 1 {
		t.Fatalf("t=0.5 blend = %d, want ≈127", out.Pix[0])
	}
}
