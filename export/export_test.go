package export

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func grayFrame(w, h int, y uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = y
	}
	return img
}

func TestWriteFileLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	err := WriteFile(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errors.New("encoder exploded")
	})
	if err == nil {
		t.Fatal("Expected an error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("Failed write left %d files behind, e.g. %s", len(entries), entries[0].Name())
	}
}

func TestWithTempPathConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")

	// Both writers hold their temp file open at once
	started := make(chan string, 2)
	release := make(chan struct{})
	errs := make(chan error, 2)

	for _, body := range []string{"first", "second"} {
		body := body
		go func() {
			errs <- withTempPath(path, func(tmpPath string) error {
				if filepath.Ext(tmpPath) != ".mp4" {
					return errors.New("temp path lost its extension: " + tmpPath)
				}
				if err := os.WriteFile(tmpPath, []byte(body), 0644); err != nil {
					return err
				}
				started <- tmpPath
				<-release
				return nil
			})
		}()
	}

	a, b := <-started, <-started
	if a == b {
		t.Fatalf("Both writers were given the temp path %s", a)
	}
	close(release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s := string(got); s != "first" && s != "second" {
		t.Errorf("Output holds %q, expected one writer's complete content", s)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the output, found %d entries", len(entries))
	}
}

func TestWithTempPathFailure(t *testing.T) {
	dir := t.TempDir()

	err := withTempPath(filepath.Join(dir, "clip.mp4"), func(tmpPath string) error {
		os.WriteFile(tmpPath, []byte("partial"), 0644)
		return errors.New("ffmpeg exited")
	})
	if err == nil {
		t.Fatal("Expected an error")
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("Failed write left %d entries behind", len(entries))
	}
}

func TestPNG16RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep.png")

	img := image.NewGray16(image.Rect(0, 0, 3, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 12345})
	img.SetGray16(2, 0, color.Gray16{Y: 65535})

	if err := PNG(path, img, png.BestSpeed); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}

	g16, ok := decoded.(*image.Gray16)
	if !ok {
		t.Fatalf("Expected a 16-bit grayscale PNG, got %T", decoded)
	}
	if y := g16.Gray16At(1, 0).Y; y != 12345 {
		t.Fatalf("Pixel is %d, expected 12345", y)
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]png.CompressionLevel{
		"":        png.DefaultCompression,
		"default": png.DefaultCompression,
		"NONE":    png.NoCompression,
		"fast":    png.BestSpeed,
		"best":    png.BestCompression,
	} {
		got, err := ParseCompression(in)
		if err != nil || got != want {
			t.Errorf("ParseCompression(%q) = %v, %v; expected %v", in, got, err, want)
		}
	}

	if _, err := ParseCompression("zstd"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestGIFDelay(t *testing.T) {
	for fps, want := range map[int]int{10: 10, 1: 100, 25: 4, 100: 1, 500: 1, 0: 10} {
		if got := GIFDelay(fps); got != want {
			t.Errorf("GIFDelay(%d) = %d, expected %d", fps, got, want)
		}
	}
}

func TestGIFGrayFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cine.gif")

	frames := make([]image.Image, 0, 15)
	for i := 0; i < 15; i++ {
		frames = append(frames, grayFrame(8, 6, uint8(i*17)))
	}

	if err := GIF(path, frames, 10); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}

	if len(decoded.Image) != 15 {
		t.Fatalf("GIF has %d frames, expected 15", len(decoded.Image))
	}
	if decoded.LoopCount != 0 {
		t.Errorf("GIF loop count is %d, expected 0 (forever)", decoded.LoopCount)
	}
	for k, frame := range decoded.Image {
		if decoded.Delay[k] != 10 {
			t.Errorf("Frame %d delay is %d, expected 10", k, decoded.Delay[k])
		}
		r, _, _, _ := frame.At(3, 3).RGBA()
		if got, want := uint8(r>>8), uint8(k*17); got != want {
			t.Errorf("Frame %d gray level is %d, expected %d", k, got, want)
		}
	}
}

func TestMakeOneGIFColorFrames(t *testing.T) {
	frames := make([]image.Image, 0, 3)
	for i := 0; i < 3; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		for j := 0; j < 16; j++ {
			img.SetRGBA(j%4, j/4, color.RGBA{R: uint8(80 * i), G: 10, B: 200, A: 255})
		}
		frames = append(frames, img)
	}

	out, err := MakeOneGIF(frames, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Image) != 3 || len(out.Delay) != 3 || len(out.Disposal) != 3 {
		t.Fatalf("Unexpected GIF layout: %d images, %d delays, %d disposals", len(out.Image), len(out.Delay), len(out.Disposal))
	}
}

func TestMakeOneGIFRejectsMixedBounds(t *testing.T) {
	if _, err := MakeOneGIF([]image.Image{grayFrame(4, 4, 0), grayFrame(5, 4, 0)}, 10); err == nil {
		t.Fatal("Expected an error for frames of different sizes")
	}
	if _, err := MakeOneGIF(nil, 10); err == nil {
		t.Fatal("Expected an error for zero frames")
	}
}

func TestContactSheet(t *testing.T) {
	frames := make([]image.Image, 0, 5)
	for i := 0; i < 5; i++ {
		frames = append(frames, grayFrame(20, 10, 200))
	}

	sheet, err := ContactSheet(frames, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// 5 frames -> 3 columns, 2 rows
	if b := sheet.Bounds(); b.Dx() != 60 || b.Dy() != 20 {
		t.Fatalf("Sheet is %dx%d, expected 60x20", b.Dx(), b.Dy())
	}
	if c := sheet.RGBAAt(5, 5); c.R != 200 {
		t.Errorf("Expected frame content at (5,5), got %+v", c)
	}
	// Sixth cell is empty
	if c := sheet.RGBAAt(45, 15); c.R != 0 || c.A != 255 {
		t.Errorf("Expected black background in the empty cell, got %+v", c)
	}

	small, err := ContactSheet(frames, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if b := small.Bounds(); b.Dx() != 50 || b.Dy() != 5 {
		t.Fatalf("Fitted sheet is %dx%d, expected 50x5", b.Dx(), b.Dy())
	}
}
