package pixelnorm

import (
	"math"
)

const (
	max8  = math.MaxUint8
	max16 = math.MaxUint16
)

// ApplyRescale maps stored values to modality values. It must run before any
// windowing. A nil rescale leaves the grid untouched.
func ApplyRescale(g Grid, r *Rescale) Grid {
	if r == nil {
		return g
	}

	out := g
	out.Rescaled = true
	out.Data = make([]float64, len(g.Data))
	for i, v := range g.Data {
		out.Data[i] = v*r.Slope + r.Intercept
	}

	return out
}

// Normalize maps a plane onto [0, 255]. With a window, values are clipped to
// the window and the window is stretched across the byte range. Without one,
// the plane's own min and max are used; a constant plane comes out all zero.
//
// Non-finite samples are clamped rather than rejected: NaN and -Inf become 0,
// +Inf becomes 255, and none of them take part in the auto-scale range.
func Normalize(p Plane, w *Window) Plane8 {
	var lower, upper float64
	if w != nil && w.Width > 0 {
		lower, upper = w.Bounds()
	} else {
		lower, upper = finiteRange(p.Data)
	}

	return Plane8{
		Rows:    p.Rows,
		Cols:    p.Cols,
		Samples: p.Samples,
		Pix:     scale8(p.Data, lower, upper),
	}
}

// Normalize16 is the auto-scale path of Normalize targeting [0, 65535]. It
// never windows.
func Normalize16(p Plane) Plane16 {
	lower, upper := finiteRange(p.Data)

	out := Plane16{
		Rows: p.Rows,
		Cols: p.Cols,
		Pix:  make([]uint16, len(p.Data)),
	}
	for i, v := range p.Data {
		out.Pix[i] = uint16(scaleOne(v, lower, upper, max16))
	}

	return out
}

func scale8(data []float64, lower, upper float64) []uint8 {
	out := make([]uint8, len(data))
	for i, v := range data {
		out[i] = uint8(scaleOne(v, lower, upper, max8))
	}
	return out
}

// scaleOne clips v to [lower, upper] and maps it linearly onto [0, top],
// truncating toward zero. A degenerate range maps everything to 0.
func scaleOne(v, lower, upper, top float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, -1):
		return 0
	case math.IsInf(v, 1):
		return top
	}

	if !(upper > lower) {
		return 0
	}

	if v <= lower {
		return 0
	}
	if v >= upper {
		return top
	}

	return math.Trunc((v - lower) / (upper - lower) * top)
}

// finiteRange returns the min and max of the finite values in data. With no
// finite values it returns 0, 0.
func finiteRange(data []float64) (lo, hi float64) {
	seen := false
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !seen {
			lo, hi = v, v
			seen = true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Invert returns top - v.
func Invert(v, top int) int {
	return top - v
}

// Invert8 flips an 8-bit plane when the convention is Inverted. Apply it after
// Normalize, never before: windowing operates on the uninverted values.
func Invert8(p Plane8, c Photometric) Plane8 {
	if c != Inverted {
		return p
	}

	out := p
	out.Pix = make([]uint8, len(p.Pix))
	for i, v := range p.Pix {
		out.Pix[i] = uint8(Invert(int(v), max8))
	}
	return out
}

// Invert16 is Invert8 for 16-bit planes.
func Invert16(p Plane16, c Photometric) Plane16 {
	if c != Inverted {
		return p
	}

	out := p
	out.Pix = make([]uint16, len(p.Pix))
	for i, v := range p.Pix {
		out.Pix[i] = uint16(Invert(int(v), max16))
	}
	return out
}
