package inference

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/service/config"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

const (
	blobMinArea = 200
	blobMaxArea = 500
)

type localService struct {
	CfgSvc    config.IService
	threshold atomic.Int32
}

func NewLocal(cfgsvc config.IService) IService {
	svc := &localService{
		CfgSvc: cfgsvc,
	}
	svc.threshold.Store(int32(gaze.ClampThreshold(cfgsvc.GetThreshold())))
	return svc
}

// NewTracker loads fresh detectors, so each goroutine can own its tracker.
func (svc *localService) NewTracker() (*gaze.Tracker, error) {
	var faces gaze.Detector
	var err error

	switch svc.CfgSvc.GetFaceDetector() {
	case "pigo":
		faces, err = gaze.NewPigoDetector(svc.CfgSvc.GetPigoCascade())
	case "cascade":
		faces, err = gaze.NewCascadeDetector(svc.CfgSvc.GetFaceCascade())
	default:
		return nil, xerrors.Errorf("unknown face detector %q", svc.CfgSvc.GetFaceDetector())
	}
	if err != nil {
		return nil, xerrors.Errorf("face detector: %w", err)
	}

	eyes, err := gaze.NewCascadeDetector(svc.CfgSvc.GetEyeCascade())
	if err != nil {
		faces.Close()
		return nil, xerrors.Errorf("eye detector: %w", err)
	}

	var segmenter gaze.Segmenter
	switch svc.CfgSvc.GetSegmenter() {
	case "blob":
		segmenter = gaze.NewBlobSegmenter(blobMinArea, blobMaxArea)
	case "contour":
		segmenter = gaze.NewContourSegmenter()
	default:
		faces.Close()
		eyes.Close()
		return nil, xerrors.Errorf("unknown segmenter %q", svc.CfgSvc.GetSegmenter())
	}

	lgr.Logger.Debug(
		"tracker created",
		slog.String("faceDetector", svc.CfgSvc.GetFaceDetector()),
		slog.String("segmenter", svc.CfgSvc.GetSegmenter()),
	)

	return gaze.NewTracker(faces, eyes, segmenter), nil
}

func (svc *localService) Threshold() int {
	return int(svc.threshold.Load())
}

// SetThreshold stores the clamped threshold and returns it.
func (svc *localService) SetThreshold(threshold int) int {
	threshold = gaze.ClampThreshold(threshold)
	svc.threshold.Store(int32(threshold))
	return threshold
}

// CanSkipFrame keeps one frame out of every FRAME_SKIP+1, starting with frame 0.
func (svc *localService) CanSkipFrame(frame int) bool {
	skip := svc.CfgSvc.GetFrameSkip()
	if skip <= 0 {
		return false
	}
	return frame%(skip+1) != 0
}
