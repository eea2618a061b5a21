// Package pixelnorm turns decoded DICOM sample values into display-ready 8- or
// 16-bit planes and decides whether a dataset is exported as a still image or
// as a frame sequence.
package pixelnorm

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// ErrNoSampleData is returned when a record decoded cleanly but carries no
// pixel data at all.
var ErrNoSampleData = errors.New("no pixel data present")

// Grid holds every sample of a dataset as float64, laid out frame-major, then
// row, then column, then sample.
type Grid struct {
	Frames  int
	Rows    int
	Cols    int
	Samples int

	// Properties of the stored (pre-rescale) values
	BitsAllocated int
	Signed        bool

	// Rescaled is set by ApplyRescale. The values are then modality units
	// rather than stored integers.
	Rescaled bool

	Data []float64
}

// NewGrid allocates a zeroed grid.
func NewGrid(frames, rows, cols, samples int) Grid {
	return Grid{
		Frames:  frames,
		Rows:    rows,
		Cols:    cols,
		Samples: samples,
		Data:    make([]float64, frames*rows*cols*samples),
	}
}

// FrameLen is the number of values in one frame.
func (g Grid) FrameLen() int {
	return g.Rows * g.Cols * g.Samples
}

// Frame returns a view of frame i. The plane shares storage with the grid.
func (g Grid) Frame(i int) Plane {
	n := g.FrameLen()
	return Plane{
		Rows:    g.Rows,
		Cols:    g.Cols,
		Samples: g.Samples,
		Data:    g.Data[i*n : (i+1)*n],
	}
}

// Validate checks that the grid's dimensions agree with its data.
func (g Grid) Validate() error {
	if g.Frames < 1 || g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("grid has empty dimensions (%d frames, %dx%d)", g.Frames, g.Rows, g.Cols)
	}
	if g.Samples != 1 && g.Samples != 3 {
		return fmt.Errorf("grid has %d samples per pixel, expected 1 or 3", g.Samples)
	}
	if want := g.Frames * g.FrameLen(); len(g.Data) != want {
		return fmt.Errorf("grid holds %d values, expected %d (%d frames of %dx%dx%d)", len(g.Data), want, g.Frames, g.Rows, g.Cols, g.Samples)
	}

	return nil
}

// Plane is a single frame of float64 samples.
type Plane struct {
	Rows    int
	Cols    int
	Samples int
	Data    []float64
}

// Plane8 is a normalized frame with one byte per sample.
type Plane8 struct {
	Rows    int
	Cols    int
	Samples int
	Pix     []uint8
}

// Image returns a *image.Gray for single-sample planes and an *image.RGBA for
// three-sample planes.
func (p Plane8) Image() image.Image {
	rect := image.Rect(0, 0, p.Cols, p.Rows)

	if p.Samples == 3 {
		img := image.NewRGBA(rect)
		for j := 0; j < p.Rows*p.Cols; j++ {
			img.SetRGBA(j%p.Cols, j/p.Cols, color.RGBA{
				R: p.Pix[3*j],
				G: p.Pix[3*j+1],
				B: p.Pix[3*j+2],
				A: 255,
			})
		}
		return img
	}

	img := image.NewGray(rect)
	copy(img.Pix, p.Pix)
	return img
}

// Plane16 is a normalized single-sample frame with two bytes per sample.
type Plane16 struct {
	Rows int
	Cols int
	Pix  []uint16
}

// Image returns the plane as a *image.Gray16.
func (p Plane16) Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, p.Cols, p.Rows))
	for j, v := range p.Pix {
		img.SetGray16(j%p.Cols, j/p.Cols, color.Gray16{Y: v})
	}
	return img
}

// Rescale is the modality LUT expressed as a linear transform.
type Rescale struct {
	Slope     float64
	Intercept float64
}

// Window is a VOI window. Width must be positive.
type Window struct {
	Center float64
	Width  float64
}

// Bounds returns the lowest and highest visible values.
func (w Window) Bounds() (lower, upper float64) {
	return w.Center - w.Width/2, w.Center + w.Width/2
}

// Photometric says whether higher values render brighter or darker.
type Photometric int

const (
	Normal Photometric = iota
	Inverted
)

func (p Photometric) String() string {
	if p == Inverted {
		return "inverted"
	}
	return "normal"
}

// ParsePhotometric maps a PhotometricInterpretation value onto a convention.
// Only MONOCHROME1 is inverted.
func ParsePhotometric(interpretation string) Photometric {
	if strings.EqualFold(strings.TrimSpace(interpretation), "MONOCHROME1") {
		return Inverted
	}
	return Normal
}

// Precision is the output sample depth.
type Precision int

const (
	EightBit Precision = iota
	SixteenBit
)

func (p Precision) String() string {
	if p == SixteenBit {
		return "16-bit"
	}
	return "8-bit"
}

// SelectPrecision only yields SixteenBit when the caller asks for it and the
// stored values were already wider than a byte. Color data stays at 8 bits.
func SelectPrecision(preserve bool, bitsAllocated, samples int) Precision {
	if preserve && bitsAllocated > 8 && samples == 1 {
		return SixteenBit
	}
	return EightBit
}

// Precision is SelectPrecision for this grid. A rescaled grid no longer holds
// stored integers, so it always takes the 8-bit path, where its window still
// applies.
func (g Grid) Precision(preserve bool) Precision {
	if g.Rescaled {
		return EightBit
	}
	return SelectPrecision(preserve, g.BitsAllocated, g.Samples)
}
