package dicomrecord

import (
	"errors"
	"fmt"
	"image"

	"github.com/carbocation/dicomconvert/pixelnorm"
	"github.com/carbocation/pfx"
)

// ErrShapeMismatch means the frames of one dataset disagree on their size.
var ErrShapeMismatch = errors.New("frames do not share the same shape")

// ErrUnsupportedDepth means native pixel data was stored with a sample width
// the decoder does not read. Only 8 and 16 bits allocated are supported.
var ErrUnsupportedDepth = errors.New("unsupported bits allocated")

type framePlane struct {
	rows, cols, samples int
	data                []float64
}

// Grid assembles every frame's samples into one grid. It returns
// pixelnorm.ErrNoSampleData if the record has no pixel data.
func (r *Record) Grid() (pixelnorm.Grid, error) {
	if r.pixelData == nil || len(r.pixelData.Frames) == 0 {
		return pixelnorm.Grid{}, pixelnorm.ErrNoSampleData
	}

	bits := r.BitsAllocated
	planes := make([]framePlane, 0, len(r.pixelData.Frames))

	for k, frame := range r.pixelData.Frames {
		if frame.IsEncapsulated() {
			encImg, err := frame.GetImage()
			if err != nil {
				return pixelnorm.Grid{}, pfx.Err(fmt.Errorf("frame %d is encapsulated and could not be decoded: %w", k, err))
			}

			var p framePlane
			p, bits = planeFromImage(encImg)
			planes = append(planes, p)
			continue
		}

		if r.BitsAllocated != 8 && r.BitsAllocated != 16 {
			return pixelnorm.Grid{}, fmt.Errorf("%w: native frame %d has %d bits allocated", ErrUnsupportedDepth, k, r.BitsAllocated)
		}

		rows, cols := frame.NativeData.Rows, frame.NativeData.Cols
		if rows == 0 || cols == 0 {
			rows, cols = r.Rows, r.Cols
		}

		samples := 1
		if r.SamplesPerPixel == 3 {
			samples = 3
		}

		p := framePlane{
			rows:    rows,
			cols:    cols,
			samples: samples,
			data:    make([]float64, 0, len(frame.NativeData.Data)*samples),
		}

		for _, px := range frame.NativeData.Data {
			if len(px) == 0 {
				return pixelnorm.Grid{}, pfx.Err(fmt.Errorf("frame %d has a pixel with no samples", k))
			}

			for s := 0; s < samples; s++ {
				v := px[0]
				if s < len(px) {
					v = px[s]
				}
				if r.Signed {
					v = signExtend(v, r.BitsStored)
				}
				p.data = append(p.data, float64(v))
			}
		}

		planes = append(planes, p)
	}

	planes = r.splitPacked(planes)

	first := planes[0]
	g := pixelnorm.Grid{
		Frames:        len(planes),
		Rows:          first.rows,
		Cols:          first.cols,
		Samples:       first.samples,
		BitsAllocated: bits,
		Signed:        r.Signed,
		Data:          make([]float64, 0, len(planes)*len(first.data)),
	}

	for k, p := range planes {
		if p.rows != first.rows || p.cols != first.cols || p.samples != first.samples || len(p.data) != p.rows*p.cols*p.samples {
			return pixelnorm.Grid{}, fmt.Errorf("%w: frame %d is %dx%dx%d with %d values, frame 0 is %dx%dx%d",
				ErrShapeMismatch, k, p.rows, p.cols, p.samples, len(p.data), first.rows, first.cols, first.samples)
		}
		g.Data = append(g.Data, p.data...)
	}

	if err := g.Validate(); err != nil {
		return pixelnorm.Grid{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	return g, nil
}

// splitPacked handles a lone native frame that actually holds every frame of
// a multi-frame dataset back to back.
func (r *Record) splitPacked(planes []framePlane) []framePlane {
	if len(planes) != 1 || r.NumberOfFrames <= 1 {
		return planes
	}

	p := planes[0]
	frameLen := p.rows * p.cols * p.samples
	if frameLen == 0 || len(p.data) != frameLen*r.NumberOfFrames {
		return planes
	}

	out := make([]framePlane, 0, r.NumberOfFrames)
	for i := 0; i < r.NumberOfFrames; i++ {
		out = append(out, framePlane{
			rows:    p.rows,
			cols:    p.cols,
			samples: p.samples,
			data:    p.data[i*frameLen : (i+1)*frameLen],
		})
	}

	return out
}

// signExtend reinterprets an unsigned stored value as two's complement over
// bitsStored bits. Values that are already negative are returned unchanged.
func signExtend(v, bitsStored int) int {
	if bitsStored <= 0 || bitsStored >= 63 {
		return v
	}

	if v >= 1<<(bitsStored-1) && v < 1<<bitsStored {
		return v - 1<<bitsStored
	}

	return v
}

// planeFromImage converts a decoded (encapsulated) frame into samples. Gray
// images keep one sample per pixel, everything else becomes 8-bit RGB. The
// second return value is the sample depth in bits.
func planeFromImage(img image.Image) (framePlane, int) {
	b := img.Bounds()
	p := framePlane{rows: b.Dy(), cols: b.Dx()}

	switch x := img.(type) {
	case *image.Gray:
		p.samples = 1
		p.data = make([]float64, 0, p.rows*p.cols)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for xx := b.Min.X; xx < b.Max.X; xx++ {
				p.data = append(p.data, float64(x.GrayAt(xx, y).Y))
			}
		}
		return p, 8
	case *image.Gray16:
		p.samples = 1
		p.data = make([]float64, 0, p.rows*p.cols)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for xx := b.Min.X; xx < b.Max.X; xx++ {
				p.data = append(p.data, float64(x.Gray16At(xx, y).Y))
			}
		}
		return p, 16
	}

	p.samples = 3
	p.data = make([]float64, 0, 3*p.rows*p.cols)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			p.data = append(p.data, float64(cr>>8), float64(cg>>8), float64(cb>>8))
		}
	}

	return p, 8
}
