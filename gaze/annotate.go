package gaze

import (
	"image/color"

	"gocv.io/x/gocv"
)

var (
	faceColor   = color.RGBA{0, 255, 255, 0}
	eyeColor    = color.RGBA{255, 0, 255, 0}
	centerColor = color.RGBA{255, 0, 0, 0}
	pupilColor  = color.RGBA{0, 255, 0, 0}
)

// Annotate draws the face box, eye boxes and pupils of r on a copy of frame.
// frame is left untouched; the caller owns the returned Mat.
func Annotate(frame gocv.Mat, r Result) gocv.Mat {
	out := gocv.NewMat()
	if frame.Channels() == 1 {
		gocv.CvtColor(frame, &out, gocv.ColorGrayToBGR)
	} else {
		frame.CopyTo(&out)
	}

	gocv.Rectangle(&out, r.Face, faceColor, 2)

	for _, eye := range []*Eye{r.LeftEye, r.RightEye} {
		if eye == nil {
			continue
		}

		if eye.Pupil != nil && eye.Pupil.Radius > 0 {
			center := eye.Pupil.Center.Add(eye.Box.Min)
			gocv.Circle(&out, center, 2, centerColor, -1)
			gocv.Circle(&out, center, eye.Pupil.Radius, pupilColor, 1)
		}

		gocv.Rectangle(&out, eye.Box, eyeColor, 2)
	}

	return out
}
