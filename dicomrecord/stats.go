package dicomrecord

import (
	"math"
	"sort"

	"github.com/carbocation/dicomconvert/pixelnorm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the sample values of a grid.
type Stats struct {
	N      int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// SampleStats computes summary statistics over the finite values in g.
func SampleStats(g pixelnorm.Grid) Stats {
	finite := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}

	if len(finite) == 0 {
		return Stats{}
	}

	out := Stats{
		N:   len(finite),
		Min: floats.Min(finite),
		Max: floats.Max(finite),
	}
	out.Mean, out.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) == 1 {
		out.StdDev = 0
	}

	sort.Float64s(finite)
	out.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)

	return out
}
