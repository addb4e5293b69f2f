package gaze

import (
	"gocv.io/x/gocv"
)

// Tracker runs the per-frame gaze pipeline: face, eyes, pupils, per-eye
// direction and consensus. It holds no per-frame state, but the detectors
// it wraps are not goroutine-safe, so use one Tracker per goroutine.
type Tracker struct {
	faces     *FaceLocator
	eyes      *EyeExtractor
	segmenter Segmenter
	closers   []Detector
}

func NewTracker(faceDetector, eyeDetector Detector, segmenter Segmenter) *Tracker {
	return &Tracker{
		faces:     NewFaceLocator(faceDetector),
		eyes:      NewEyeExtractor(eyeDetector),
		segmenter: segmenter,
		closers:   []Detector{faceDetector, eyeDetector},
	}
}

// Process computes the gaze result of one BGR or grayscale frame. threshold
// is read fresh on every call, so a live control can change it between frames.
func (t *Tracker) Process(frame gocv.Mat, threshold int) Result {
	res := Result{Direction: DirectionNone}
	if frame.Empty() {
		return res
	}

	gray := toGray(frame)
	defer gray.Close()

	res.Face = t.faces.Locate(gray)
	res.LeftEye, res.RightEye = t.eyes.Extract(gray, res.Face)

	for _, eye := range []*Eye{res.LeftEye, res.RightEye} {
		if eye == nil {
			continue
		}

		sub := eye.SubImage(gray)
		pupil, ok := t.segmenter.Segment(sub, threshold)
		sub.Close()
		if ok {
			eye.Pupil = &pupil
		}
	}

	res.Direction = Consensus(ClassifyEye(res.LeftEye), ClassifyEye(res.RightEye))
	return res
}

func (t *Tracker) Close() error {
	var first error
	for _, d := range t.closers {
		if d == nil {
			continue
		}
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func toGray(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch frame.Channels() {
	case 1:
		frame.CopyTo(&gray)
	case 4:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	}
	return gray
}
