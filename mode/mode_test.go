package mode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/pipeline"
	"github.com/khaledhikmat/gaze-go/quiz"
	"github.com/khaledhikmat/gaze-go/service/config"
	"github.com/khaledhikmat/gaze-go/service/data"
)

type emptyDetector struct{}

func (emptyDetector) Detect(_ gocv.Mat) []image.Rectangle { return nil }
func (emptyDetector) Close() error                       { return nil }

type fixedInference struct {
	threshold int
	err       error
}

func (f *fixedInference) NewTracker() (*gaze.Tracker, error) {
	if f.err != nil {
		return nil, f.err
	}
	return gaze.NewTracker(emptyDetector{}, emptyDetector{}, gaze.NewContourSegmenter()), nil
}

func (f *fixedInference) Threshold() int                 { return f.threshold }
func (f *fixedInference) SetThreshold(threshold int) int { f.threshold = threshold; return threshold }
func (f *fixedInference) CanSkipFrame(_ int) bool        { return false }

func testServices(t *testing.T) pipeline.ServicesFactory {
	t.Helper()
	t.Setenv("DATA_FOLDER", t.TempDir())
	t.Setenv("RECORDINGS_FOLDER", t.TempDir())

	cfg := config.NewEnv()
	return pipeline.ServicesFactory{
		CfgSvc:       cfg,
		DataSvc:      data.NewFilesDB(cfg),
		InferenceSvc: &fixedInference{threshold: 25},
	}
}

func TestHandleKey(t *testing.T) {
	now := time.Unix(0, 0)
	s := quiz.NewSession(quiz.DefaultBank[:1], 0, 0, nil)

	tests := []struct {
		name string
		key  int
		want keyAction
		mode quiz.Mode
	}{
		{"no key", -1, keyNone, quiz.ModeBeginning},
		{"next before start", 'n', keyNone, quiz.ModeBeginning},
		{"start", 's', keyNone, quiz.ModeReading},
		{"next while reading", 'n', keyNone, quiz.ModeReading},
		{"quit", 'q', keyQuit, quiz.ModeReading},
		{"escape", keyEscape, keyQuit, quiz.ModeReading},
	}

	for _, tt := range tests {
		if got := handleKey(s, tt.key, now); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
		if s.Mode() != tt.mode {
			t.Errorf("%s: mode %s, want %s", tt.name, s.Mode(), tt.mode)
		}
	}

	s.Tick(now)
	s.Tick(now)
	if got := handleKey(s, 'n', now); got != keyCompleted {
		t.Errorf("expected completion on the last question, got %v", got)
	}
}

func TestPreviewSize(t *testing.T) {
	if got := previewSize(1280, 720); got != image.Pt(853, 480) {
		t.Errorf("unexpected preview size %v", got)
	}
}

func TestAnnotatedPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"face.jpg", "face.annotated.png"},
		{filepath.Join("shots.d", "face"), filepath.Join("shots.d", "face") + ".annotated.png"},
		{"a.b.png", "a.b.annotated.png"},
	}

	for _, tt := range tests {
		if got := annotatedPath(tt.in); got != tt.want {
			t.Errorf("annotatedPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStill(t *testing.T) {
	svcs := testServices(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "blank.png")

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer img.Close()
	if ok := gocv.IMWrite(in, img); !ok {
		t.Fatalf("failed to write test image")
	}

	var out bytes.Buffer
	if err := still(svcs, []string{in}, &out); err != nil {
		t.Fatalf("still: %v", err)
	}

	var res gaze.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not a result: %v", err)
	}
	if res.Direction != gaze.DirectionNone {
		t.Errorf("expected none, got %s", res.Direction)
	}
	if res.Face != image.Rect(0, 0, 160, 120) {
		t.Errorf("expected the whole image as face, got %v", res.Face)
	}

	if _, err := os.Stat(filepath.Join(dir, "blank.annotated.png")); err != nil {
		t.Errorf("annotated image missing: %v", err)
	}
}

func TestStill_Errors(t *testing.T) {
	svcs := testServices(t)

	if err := still(svcs, nil, &bytes.Buffer{}); err == nil {
		t.Errorf("expected a usage error")
	}
	if err := still(svcs, []string{filepath.Join(t.TempDir(), "missing.png")}, &bytes.Buffer{}); err == nil {
		t.Errorf("expected an error for a missing image")
	}
}

func TestMonitor_FileSourceMissing(t *testing.T) {
	t.Setenv("SOURCE_TYPE", "file")
	t.Setenv("SOURCE_DEVICE", filepath.Join(t.TempDir(), "missing.mp4"))
	t.Setenv("MODE_MAX_SHUTDOWN_TIME", "0")
	svcs := testServices(t)

	reporter := func(_ context.Context, _ pipeline.ServicesFactory, _ chan interface{}, _ chan interface{}) chan pipeline.DirectionData {
		return make(chan pipeline.DirectionData, 1)
	}

	done := make(chan error, 1)
	go func() {
		done <- Monitor(context.Background(), svcs, nil, reporter, nil)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("monitor did not return")
	}

	raw, err := os.ReadFile(filepath.Join(svcs.CfgSvc.GetDataFolder(), "errors.json"))
	if err != nil {
		t.Fatalf("expected a stored error: %v", err)
	}
	if !strings.Contains(string(raw), "agent_framer") {
		t.Errorf("expected the framer error, got %s", raw)
	}
}

func TestMonitor_TrackerFailureEnds(t *testing.T) {
	t.Setenv("SOURCE_TYPE", "camera")
	t.Setenv("SOURCE_DEVICE", "0")
	t.Setenv("STREAMER_MAX_WORKERS", "2")
	t.Setenv("MODE_MAX_SHUTDOWN_TIME", "0")
	svcs := testServices(t)
	svcs.InferenceSvc = &fixedInference{threshold: 25, err: errors.New("no cascade")}

	reporter := func(_ context.Context, _ pipeline.ServicesFactory, _ chan interface{}, _ chan interface{}) chan pipeline.DirectionData {
		return make(chan pipeline.DirectionData, 1)
	}

	done := make(chan error, 1)
	go func() {
		done <- Monitor(context.Background(), svcs, []pipeline.Streamer{pipeline.GazeStreamer}, reporter, nil)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("monitor kept running without trackers")
	}

	raw, err := os.ReadFile(filepath.Join(svcs.CfgSvc.GetDataFolder(), "errors.json"))
	if err != nil {
		t.Fatalf("expected a stored error: %v", err)
	}
	if !strings.Contains(string(raw), "no cascade") {
		t.Errorf("expected the tracker error, got %s", raw)
	}
}

func TestProcStats(t *testing.T) {
	svcs := testServices(t)

	procStats(svcs.DataSvc, model.FramerStats{Name: "framer"})
	procStats(svcs.DataSvc, model.ReporterStats{Name: "reporter"})
	procStats(svcs.DataSvc, "unknown")

	for _, name := range []string{"framer-stats.json", "reporter-stats.json"} {
		if _, err := os.Stat(filepath.Join(svcs.CfgSvc.GetDataFolder(), name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
