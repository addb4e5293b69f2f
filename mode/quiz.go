package mode

import (
	"context"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/pipeline"
	"github.com/khaledhikmat/gaze-go/quiz"
	"github.com/khaledhikmat/gaze-go/screen"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

const (
	frameWindow    = "frame"
	screenWindow   = "screen"
	thresholdBar   = "threshold"
	previewDivisor = 1.5
	keyEscape      = 27
)

type keyAction int

const (
	keyNone keyAction = iota
	keyQuit
	keyCompleted
)

// Quiz runs the interactive sorting quiz on one thread: capture, track,
// advance the session and draw both windows once per frame.
func Quiz(canxCtx context.Context, svcs pipeline.ServicesFactory, _ []pipeline.Streamer, _ pipeline.Reporter, _ []string) error {
	source := pipeline.SourceFromConfig(svcs.CfgSvc)
	capture, err := pipeline.OpenCapture(source)
	if err != nil {
		return err
	}
	defer capture.Close()

	tracker, err := svcs.InferenceSvc.NewTracker()
	if err != nil {
		return xerrors.Errorf("quiz tracker: %w", err)
	}
	defer tracker.Close()

	frameWin := gocv.NewWindow(frameWindow)
	defer frameWin.Close()
	screenWin := gocv.NewWindow(screenWindow)
	defer screenWin.Close()
	screenWin.MoveWindow(0, 0)
	frameWin.MoveWindow(0, screen.Height+75)

	trackbar := frameWin.CreateTrackbar(thresholdBar, 255)
	trackbar.SetPos(svcs.InferenceSvc.Threshold())

	session := quiz.NewSession(quiz.DefaultBank,
		time.Duration(svcs.CfgSvc.GetQuizReadingTime())*time.Second,
		time.Duration(svcs.CfgSvc.GetQuizAnsweringTime())*time.Second,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	console := pipeline.NewConsole(nil)

	img := gocv.NewMat()
	defer img.Close()

	frames := 0
	failures := 0
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info("quiz context cancelled")
			return nil
		default:
		}

		if ok := capture.Read(&img); !ok || img.Empty() {
			if source.Type == "file" {
				lgr.Logger.Info("quiz source exhausted", slog.String("source", source.ID))
				return nil
			}
			failures++
			if pipeline.CameraGone(failures) {
				return xerrors.Errorf("camera %s stopped delivering frames", source.ID)
			}
			continue
		}
		failures = 0

		threshold := svcs.InferenceSvc.SetThreshold(trackbar.GetPos())
		start := time.Now()
		res := tracker.Process(img, threshold)
		lgr.Logger.Debug(
			"frame processed",
			slog.Int("frame", frames),
			slog.Duration("elapsed", time.Since(start)),
			slog.Int("threshold", threshold),
			slog.String("direction", string(res.Direction)),
			slog.String("mode", session.Mode().String()),
		)
		console.Update(source.ID, frames, res.Direction)
		frames++

		now := time.Now()
		session.Tick(now)
		session.Observe(res.Direction)

		showFrame(frameWin, img, res)
		showScreen(screenWin, screen.ViewOf(session, res.Direction))

		switch handleKey(session, frameWin.WaitKey(1), now) {
		case keyQuit:
			return nil
		case keyCompleted:
			rec, _ := session.Record()
			saveSession(svcs.DataSvc, rec)
			lgr.Logger.Info(
				"quiz completed",
				slog.String("session", rec.ID),
				slog.String("house", rec.House),
				slog.Any("scores", rec.Scores),
			)
		}
	}
}

// handleKey applies a key press: s starts a quiz, n confirms the awaited
// answer, ESC or q quits.
func handleKey(s *quiz.Session, key int, now time.Time) keyAction {
	switch key & 0xff {
	case keyEscape, 'q':
		return keyQuit
	case 's':
		s.Start(now)
		lgr.Logger.Info("quiz started", slog.String("session", s.ID()))
	case 'n':
		if s.Next(now) {
			return keyCompleted
		}
	}
	return keyNone
}

func previewSize(cols, rows int) image.Point {
	return image.Pt(int(float64(cols)/previewDivisor), int(float64(rows)/previewDivisor))
}

func showFrame(win *gocv.Window, img gocv.Mat, res gaze.Result) {
	annotated := gaze.Annotate(img, res)
	defer annotated.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(annotated, &resized, previewSize(annotated.Cols(), annotated.Rows()), 0, 0, gocv.InterpolationLinear)

	win.IMShow(resized)
}

func showScreen(win *gocv.Window, v screen.View) {
	img := screen.Render(v)
	defer img.Close()
	win.IMShow(img)
}
