package gaze

import (
	"image"

	"gocv.io/x/gocv"
)

// DefaultThreshold is the binarization cutoff used when the caller has no
// live value of its own.
const DefaultThreshold = 25

// Direction is the horizontal gaze direction of one eye or of a whole frame.
type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Side labels an eye slot. Labels follow the mirrored camera image: the
// subject's left eye is the one on the right half of the frame.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Pupil is a segmented pupil. Center is relative to the eye box origin.
type Pupil struct {
	Center image.Point `json:"center"`
	Radius int         `json:"radius"`
}

// Eye is one detected eye region. Box is in frame coordinates.
type Eye struct {
	Side  Side            `json:"side"`
	Box   image.Rectangle `json:"box"`
	Pupil *Pupil          `json:"pupil,omitempty"`
}

// Detected reports whether the eye exists and a pupil was found in it.
func (e *Eye) Detected() bool {
	return e != nil && e.Pupil != nil
}

// SubImage returns the eye region of frame. The caller owns the returned Mat.
func (e *Eye) SubImage(frame gocv.Mat) gocv.Mat {
	return frame.Region(e.Box)
}

// Result is everything computed for a single frame.
type Result struct {
	Face      image.Rectangle `json:"face"`
	LeftEye   *Eye            `json:"leftEye,omitempty"`
	RightEye  *Eye            `json:"rightEye,omitempty"`
	Direction Direction       `json:"direction"`
}
