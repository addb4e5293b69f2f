package pipeline

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/broadcast"
	"github.com/khaledhikmat/gaze-go/service/config"
	"github.com/khaledhikmat/gaze-go/service/data"
	"github.com/khaledhikmat/gaze-go/service/inference"
	"github.com/khaledhikmat/gaze-go/service/storage"
)

// Time given to upstream goroutines to notice a cancellation before a
// stage drains its input.
const waitBeforeCancel = 100 * time.Millisecond

type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	StorageSvc   storage.IService
	InferenceSvc inference.IService
	BroadcastSvc broadcast.IService
}

type FrameData struct {
	Mat       gocv.Mat
	Index     int
	Timestamp time.Time
}

// DirectionData is one processed frame. Mat holds the annotated frame when
// snapshots are enabled and is empty otherwise; the receiver closes it.
type DirectionData struct {
	Mat       gocv.Mat
	Source    model.Source
	Frame     int
	Worker    int
	Result    gaze.Result
	Threshold int
	Timestamp time.Time
}

// Signature of streamer function. An error means the streamer could not
// start and the agent cannot run.
type Streamer func(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}, directionStream chan DirectionData) (chan FrameData, error)

// Signature of reporter function
type Reporter func(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, statsStream chan interface{}) chan DirectionData
