package gaze

import (
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"gocv.io/x/gocv"
	"golang.org/x/xerrors"
)

// Both the face and the eye cascades run with the same multi-scale tuning.
const (
	detectScaleFactor  = 1.3
	detectMinNeighbors = 5
)

// Detector finds candidate object boxes in a grayscale image. Boxes are
// relative to the image origin and are returned in detection order.
type Detector interface {
	Detect(img gocv.Mat) []image.Rectangle
	Close() error
}

// CascadeDetector is a Haar/LBP cascade loaded from an OpenCV XML file.
// It is not safe for concurrent use.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	path       string
}

func NewCascadeDetector(path string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, xerrors.Errorf("error reading cascade file: %s", path)
	}

	return &CascadeDetector{
		classifier: classifier,
		path:       path,
	}, nil
}

func (d *CascadeDetector) Detect(img gocv.Mat) []image.Rectangle {
	if img.Empty() {
		return nil
	}
	return d.classifier.DetectMultiScaleWithParams(img, detectScaleFactor, detectMinNeighbors, 0, image.Point{}, image.Point{})
}

func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}

// PigoDetector finds faces with the pigo pixel-intensity-comparison cascade.
// It can stand in for the Haar face cascade; it has no eye model.
type PigoDetector struct {
	classifier   *pigo.Pigo
	minSize      int
	shiftFactor  float64
	scaleFactor  float64
	iouThreshold float64
	minQuality   float32
}

func NewPigoDetector(path string) (*PigoDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("error reading pigo cascade %s: %w", path, err)
	}

	p := pigo.NewPigo()
	// Unpack the binary file. This returns the number of cascade trees,
	// the tree depth, the threshold and the prediction from the leaf nodes.
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, xerrors.Errorf("error unpacking pigo cascade %s: %w", path, err)
	}

	return &PigoDetector{
		classifier:   classifier,
		minSize:      40,
		shiftFactor:  0.1,
		scaleFactor:  detectScaleFactor,
		iouThreshold: 0.2,
		minQuality:   5.0,
	}, nil
}

func (d *PigoDetector) Detect(img gocv.Mat) []image.Rectangle {
	if img.Empty() {
		return nil
	}

	// pigo wants one contiguous 8-bit plane; regions are not contiguous.
	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() == 1 {
		img.CopyTo(&gray)
	} else {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}

	rows, cols := gray.Rows(), gray.Cols()
	params := pigo.CascadeParams{
		MinSize:     d.minSize,
		MaxSize:     min(rows, cols),
		ShiftFactor: d.shiftFactor,
		ScaleFactor: d.scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.ToBytes(),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.iouThreshold)

	bounds := image.Rect(0, 0, cols, rows)
	var rects []image.Rectangle
	for _, det := range dets {
		if det.Q < d.minQuality {
			continue
		}
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Intersect(bounds)
		if r.Empty() {
			continue
		}
		rects = append(rects, r)
	}

	return rects
}

func (d *PigoDetector) Close() error {
	return nil
}
