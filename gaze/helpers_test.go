package gaze

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	background = 200
	dark       = 20
)

// fakeDetector returns a fixed candidate list and records what it was shown.
type fakeDetector struct {
	rects []image.Rectangle
	sizes []image.Point
}

func (d *fakeDetector) Detect(img gocv.Mat) []image.Rectangle {
	d.sizes = append(d.sizes, image.Pt(img.Cols(), img.Rows()))
	return d.rects
}

func (d *fakeDetector) Close() error {
	return nil
}

// recordingSegmenter records the thresholds it was called with.
type recordingSegmenter struct {
	inner      Segmenter
	thresholds []int
}

func (s *recordingSegmenter) Segment(eye gocv.Mat, threshold int) (Pupil, bool) {
	s.thresholds = append(s.thresholds, threshold)
	return s.inner.Segment(eye, threshold)
}

func uniformGray(w, h int, v uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(v), 0, 0, 0), h, w, gocv.MatTypeCV8UC1)
}

func uniformBGR(w, h int, v uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(v), float64(v), float64(v), 0), h, w, gocv.MatTypeCV8UC3)
}

func drawDisk(m *gocv.Mat, center image.Point, r int) {
	gocv.Circle(m, center, r, color.RGBA{dark, dark, dark, 0}, -1)
}

// faceFixture is a 400x300 frame whose face box is (100,50)-(300,250). The
// eye detector reports one candidate on each half of the face; after the
// eyebrow trim the image-right eye box is (210,100)-(290,130) and the
// image-left one is (110,100)-(190,130).
type faceFixture struct {
	frame gocv.Mat
	faces *fakeDetector
	eyes  *fakeDetector
}

var (
	fixtureFace     = image.Rect(100, 50, 300, 250)
	fixtureLeftBox  = image.Rect(210, 100, 290, 130)
	fixtureRightBox = image.Rect(110, 100, 190, 130)
)

// newFaceFixture draws one pupil per eye at pupilX (eye-box relative).
func newFaceFixture(pupilX int) faceFixture {
	frame := uniformBGR(400, 300, background)
	drawDisk(&frame, image.Pt(fixtureRightBox.Min.X+pupilX, 115), 5)
	drawDisk(&frame, image.Pt(fixtureLeftBox.Min.X+pupilX, 115), 5)

	return faceFixture{
		frame: frame,
		faces: &fakeDetector{rects: []image.Rectangle{fixtureFace}},
		eyes: &fakeDetector{rects: []image.Rectangle{
			image.Rect(10, 40, 90, 80),
			image.Rect(110, 40, 190, 80),
		}},
	}
}
