package gaze

import (
	"image"

	"gocv.io/x/gocv"
)

const blurKernel = 7

// FaceLocator picks one face box per frame.
type FaceLocator struct {
	detector Detector
}

func NewFaceLocator(detector Detector) *FaceLocator {
	return &FaceLocator{
		detector: detector,
	}
}

// Locate returns the face box of a grayscale frame in frame coordinates. It
// never fails: when nothing is detected the whole frame is treated as the face.
func (l *FaceLocator) Locate(gray gocv.Mat) image.Rectangle {
	bounds := image.Rect(0, 0, gray.Cols(), gray.Rows())
	if gray.Empty() {
		return bounds
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	return largestBox(l.detector.Detect(blurred), bounds)
}

// largestBox returns the candidate with the largest area, clipped to bounds.
// Ties keep the first one seen. With no usable candidate it returns bounds.
func largestBox(candidates []image.Rectangle, bounds image.Rectangle) image.Rectangle {
	var (
		best  image.Rectangle
		found bool
	)

	for _, c := range candidates {
		c = c.Intersect(bounds)
		if c.Empty() {
			continue
		}
		if !found || area(c) > area(best) {
			best = c
			found = true
		}
	}

	if !found {
		return bounds
	}
	return best
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
