package pipeline

import (
	"bytes"
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/config"
)

type fakeDetector struct {
	rects []image.Rectangle
}

func (d *fakeDetector) Detect(_ gocv.Mat) []image.Rectangle {
	return d.rects
}

func (d *fakeDetector) Close() error {
	return nil
}

type fakeInference struct {
	mu        sync.Mutex
	threshold int
	trackers  int
	err       error
}

func (f *fakeInference) NewTracker() (*gaze.Tracker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.trackers++
	return gaze.NewTracker(&fakeDetector{}, &fakeDetector{}, gaze.NewContourSegmenter()), nil
}

func (f *fakeInference) Threshold() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threshold
}

func (f *fakeInference) SetThreshold(threshold int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = threshold
	return threshold
}

func (f *fakeInference) CanSkipFrame(_ int) bool {
	return false
}

type fakeBroadcast struct {
	events chan model.DirectionEvent
}

func (f *fakeBroadcast) Publish(event model.DirectionEvent) error {
	f.events <- event
	return nil
}

func (f *fakeBroadcast) Clients() int {
	return 0
}

func (f *fakeBroadcast) Close() error {
	return nil
}

type bufferJournal struct {
	bytes.Buffer
	closed bool
}

func (j *bufferJournal) Close() error {
	j.closed = true
	return nil
}

func testServices(t *testing.T) (ServicesFactory, *fakeBroadcast) {
	t.Helper()
	t.Setenv("RECORDINGS_FOLDER", t.TempDir())
	t.Setenv("DATA_FOLDER", t.TempDir())

	bc := &fakeBroadcast{events: make(chan model.DirectionEvent, 16)}
	return ServicesFactory{
		CfgSvc:       config.NewEnv(),
		InferenceSvc: &fakeInference{threshold: 25},
		BroadcastSvc: bc,
	}, bc
}

func testSource() model.Source {
	return model.Source{ID: "file-test.mp4", Type: "file", Device: "test.mp4"}
}

func directionData(frame int, d gaze.Direction) DirectionData {
	return DirectionData{
		Mat:       gocv.NewMat(),
		Source:    testSource(),
		Frame:     frame,
		Result:    gaze.Result{Direction: d},
		Threshold: 25,
		Timestamp: time.UnixMilli(int64(1000 + frame)),
	}
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting on channel")
	}
	var zero T
	return zero
}

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}
