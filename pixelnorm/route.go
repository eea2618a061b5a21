package pixelnorm

// DefaultFPS is the frame rate attached to sequences when the caller does not
// choose one.
const DefaultFPS = 10

// Route is either a single plane or an ordered sequence of planes.
type Route struct {
	Single   *Plane
	Sequence []Plane

	// FPS is only meaningful for sequences, and only to the encoder.
	FPS int
}

// IsSequence reports whether the route holds more than one frame.
func (r Route) IsSequence() bool {
	return r.Single == nil
}

// RouteFrames sends grids with more than one frame down the sequence path. A
// grid with a single frame, including a leading frame dimension of exactly 1,
// becomes a lone plane.
func RouteFrames(g Grid, fps int) Route {
	if fps <= 0 {
		fps = DefaultFPS
	}

	if g.Frames <= 1 {
		p := g.Frame(0)
		return Route{Single: &p, FPS: fps}
	}

	seq := make([]Plane, 0, g.Frames)
	for i := 0; i < g.Frames; i++ {
		seq = append(seq, g.Frame(i))
	}

	return Route{Sequence: seq, FPS: fps}
}
