package gaze

import (
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
)

const (
	erodeIterations  = 2
	dilateIterations = 4
	medianKernel     = 7
	// Hulls smaller than this many square pixels are noise.
	minHullArea = 10.0
)

// Segmenter finds the pupil in a grayscale eye image given the current
// binarization threshold.
type Segmenter interface {
	Segment(eye gocv.Mat, threshold int) (Pupil, bool)
}

// ContourSegmenter thresholds the eye, cleans the mask morphologically and
// accepts the smallest contour that yields a usable centroid. Preferring the
// smallest blob keeps merged shadow regions from winning over the pupil.
type ContourSegmenter struct{}

func NewContourSegmenter() *ContourSegmenter {
	return &ContourSegmenter{}
}

func (s *ContourSegmenter) Segment(eye gocv.Mat, threshold int) (Pupil, bool) {
	if eye.Empty() {
		return Pupil{}, false
	}

	mask := pupilMask(eye, threshold)
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	order := make([]int, contours.Size())
	areas := make([]float64, contours.Size())
	for i := range order {
		order[i] = i
		areas[i] = gocv.ContourArea(contours.At(i))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return areas[order[a]] < areas[order[b]]
	})

	for _, i := range order {
		if p, ok := measureHull(contours.At(i)); ok {
			return p, true
		}
	}

	return Pupil{}, false
}

// measureHull measures the convex hull of a contour. The radius comes from
// the hull perimeter rather than an enclosing circle, which holds up better
// on ragged outlines.
func measureHull(contour gocv.PointVector) (Pupil, bool) {
	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(contour, &hull, false, true)
	if hull.Empty() {
		return Pupil{}, false
	}

	points := gocv.NewPointVectorFromMat(hull)
	defer points.Close()

	if gocv.ContourArea(points) < minHullArea {
		return Pupil{}, false
	}
	radius := gocv.ArcLength(points, true) / (2 * math.Pi)

	m := gocv.Moments(hull, false)
	if m["m00"] == 0 {
		return Pupil{}, false
	}

	return Pupil{
		Center: image.Pt(int(m["m10"]/m["m00"]), int(m["m01"]/m["m00"])),
		Radius: int(radius),
	}, true
}

// pupilMask returns a binary mask where the pupil side of the threshold is
// white. The caller owns the returned Mat.
func pupilMask(eye gocv.Mat, threshold int) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	if eye.Channels() == 1 {
		eye.CopyTo(&gray)
	} else {
		gocv.CvtColor(eye, &gray, gocv.ColorBGRToGray)
	}

	// Pupils are reliably the darkest pixels only after equalization.
	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	mask := gocv.NewMat()
	gocv.Threshold(equalized, &mask, float32(ClampThreshold(threshold)), 255, gocv.ThresholdBinaryInv)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	for i := 0; i < erodeIterations; i++ {
		gocv.Erode(mask, &mask, kernel)
	}
	for i := 0; i < dilateIterations; i++ {
		gocv.Dilate(mask, &mask, kernel)
	}

	gocv.MedianBlur(mask, &mask, medianKernel)
	return mask
}

// ClampThreshold forces a threshold into the 8-bit range.
func ClampThreshold(threshold int) int {
	switch {
	case threshold < 0:
		return 0
	case threshold > 255:
		return 255
	default:
		return threshold
	}
}

// BlobSegmenter finds the pupil with OpenCV's simple blob detector on the
// same cleaned mask. Area, circularity and inertia filters reject
// elongated shadows, so it suits close-up cameras with a known pupil size.
type BlobSegmenter struct {
	minArea float64
	maxArea float64
}

func NewBlobSegmenter(minArea, maxArea float64) *BlobSegmenter {
	return &BlobSegmenter{
		minArea: minArea,
		maxArea: maxArea,
	}
}

func (s *BlobSegmenter) Segment(eye gocv.Mat, threshold int) (Pupil, bool) {
	if eye.Empty() {
		return Pupil{}, false
	}

	mask := pupilMask(eye, threshold)
	defer mask.Close()

	params := gocv.NewSimpleBlobDetectorParams()
	params.SetMinThreshold(0)
	params.SetMaxThreshold(255)
	params.SetFilterByColor(true)
	params.SetBlobColor(255)
	params.SetFilterByArea(true)
	params.SetMinArea(s.minArea)
	params.SetMaxArea(s.maxArea)
	params.SetFilterByCircularity(true)
	params.SetMinCircularity(0.5)
	params.SetMaxCircularity(1.5)
	params.SetFilterByInertia(true)
	params.SetMinInertiaRatio(0.5)
	params.SetMaxInertiaRatio(1.5)

	detector := gocv.NewSimpleBlobDetectorWithParams(params)
	defer detector.Close()

	keypoints := detector.Detect(mask)
	if len(keypoints) == 0 {
		return Pupil{}, false
	}

	kp := keypoints[0]
	return Pupil{
		Center: image.Pt(int(kp.X), int(kp.Y)),
		Radius: int(kp.Size / 2),
	}, true
}
