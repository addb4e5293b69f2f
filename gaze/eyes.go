package gaze

import (
	"image"

	"gocv.io/x/gocv"
)

const (
	// Candidates starting below this fraction of the face height are
	// nostrils, mouth corners and the like.
	maxEyeTop = 0.5
	// Share of the candidate height removed from the top to drop the eyebrow.
	eyebrowTrim = 0.25
	// Candidates centered right of this fraction of the face width go to the
	// left slot (mirrored image).
	sideSplit = 0.5
)

// EyeExtractor finds up to one eye per side inside a face box.
type EyeExtractor struct {
	detector Detector
}

func NewEyeExtractor(detector Detector) *EyeExtractor {
	return &EyeExtractor{
		detector: detector,
	}
}

// Extract runs the eye detector over the face region of a grayscale frame
// and returns the left and right eye slots. Either may be nil.
func (x *EyeExtractor) Extract(gray gocv.Mat, face image.Rectangle) (*Eye, *Eye) {
	face = face.Intersect(image.Rect(0, 0, gray.Cols(), gray.Rows()))
	if face.Empty() {
		return nil, nil
	}

	region := gray.Region(face)
	defer region.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(region, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	return assignEyes(x.detector.Detect(blurred), face)
}

// assignEyes turns face-relative candidates into at most one eye per side.
//
// A later candidate landing on an already filled side replaces the earlier
// one. There is no scoring between duplicates.
func assignEyes(candidates []image.Rectangle, face image.Rectangle) (left *Eye, right *Eye) {
	w, h := face.Dx(), face.Dy()
	local := image.Rect(0, 0, w, h)

	for _, c := range candidates {
		ex, ey, ew, eh := c.Min.X, c.Min.Y, c.Dx(), c.Dy()
		if float64(ey) > maxEyeTop*float64(h) {
			continue
		}

		trim := int(eyebrowTrim * float64(eh))
		box := image.Rect(ex, ey+trim, ex+ew, ey+eh).Intersect(local)
		if box.Empty() {
			continue
		}
		box = box.Add(face.Min)

		center := float64(ex) + float64(ew)/2
		if center > sideSplit*float64(w) {
			left = &Eye{Side: SideLeft, Box: box}
		} else {
			right = &Eye{Side: SideRight, Box: box}
		}
	}

	return left, right
}
