package gaze

// Pupil x-positions, as a fraction of the eye box width, outside of which
// the eye is considered to look sideways.
const (
	rightBound = 0.45
	leftBound  = 0.55
)

// Classify maps a pupil x-coordinate inside an eye box of the given width to
// a direction. The same bounds apply to both eyes.
func Classify(x, width int) Direction {
	switch {
	case float64(x) < rightBound*float64(width):
		return DirectionRight
	case float64(x) > leftBound*float64(width):
		return DirectionLeft
	default:
		return DirectionNone
	}
}

// ClassifyEye classifies a detected eye. Missing eyes and eyes without a
// pupil vote none.
func ClassifyEye(e *Eye) Direction {
	if !e.Detected() {
		return DirectionNone
	}
	return Classify(e.Pupil.Center.X, e.Box.Dx())
}

// Consensus combines the two per-eye votes. A single vote wins over none and
// conflicting votes cancel out.
func Consensus(left, right Direction) Direction {
	left, right = orNone(left), orNone(right)

	switch {
	case left == right:
		return left
	case left == DirectionNone:
		return right
	case right == DirectionNone:
		return left
	default:
		return DirectionNone
	}
}

func orNone(d Direction) Direction {
	if d == "" {
		return DirectionNone
	}
	return d
}
