package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

const tracerName = "github.com/khaledhikmat/gaze-go/pipeline"

// GazeStreamer runs the gaze tracker over incoming frames on
// STREAMER_MAX_WORKERS workers. Each worker owns its tracker.
func GazeStreamer(canx context.Context, svcs ServicesFactory, source model.Source, _ chan interface{}, statsStream chan interface{}, directionStream chan DirectionData) (chan FrameData, error) {
	// Trackers are built up front: without them nothing would drain the frames
	workers := max(svcs.CfgSvc.GetStreamerMaxWorkers(), 1)
	trackers := make([]*gaze.Tracker, 0, workers)
	for i := 0; i < workers; i++ {
		tracker, err := svcs.InferenceSvc.NewTracker()
		if err != nil {
			for _, t := range trackers {
				t.Close()
			}
			return nil, xerrors.Errorf("gaze streamer worker %d for %s: %w", i, source.ID, err)
		}
		trackers = append(trackers, tracker)
	}

	in := make(chan FrameData, 100)
	tracer := otel.Tracer(tracerName)
	snapshots := svcs.CfgSvc.GetSnapshots()

	go func() {
		lgr.Logger.Info(
			"gaze streamer initialized...",
			slog.String("source", source.ID),
			slog.Int("workers", workers),
		)

		proc := func(tracker *gaze.Tracker, frame FrameData, worker int) bool {
			defer frame.Mat.Close()

			_, span := tracer.Start(canx, "gaze.frame", trace.WithAttributes(
				attribute.String("source", source.ID),
				attribute.Int("frame", frame.Index),
				attribute.Int("worker", worker),
			))
			defer span.End()

			threshold := svcs.InferenceSvc.Threshold()
			res := tracker.Process(frame.Mat, threshold)
			span.SetAttributes(
				attribute.Int("threshold", threshold),
				attribute.String("direction", string(res.Direction)),
			)

			out := DirectionData{
				Source:    source,
				Frame:     frame.Index,
				Worker:    worker,
				Result:    res,
				Threshold: threshold,
				Timestamp: frame.Timestamp,
			}
			if snapshots {
				out.Mat = gaze.Annotate(frame.Mat, res)
			} else {
				out.Mat = gocv.NewMat()
			}

			select {
			case <-canx.Done():
				out.Mat.Close()
				return false
			case directionStream <- out:
				return true
			}
		}

		// Launch worker processes that compete on emptying/procesing frames
		for i, tracker := range trackers {
			go func(worker int, tracker *gaze.Tracker) {
				defer tracker.Close()

				frames := 0
				beginTime := time.Now().Unix()
				var totalProcTime time.Duration // Track total processing time

				defer func() {
					uptime := time.Now().Unix() - beginTime
					fps := frames
					if uptime > 0 {
						fps = int(float64(frames) / float64(uptime))
					}

					// Calculate average processing time
					var avgProcTime float64
					if frames > 0 {
						avgProcTime = totalProcTime.Seconds() / float64(frames)
					}

					select {
					case statsStream <- model.StreamerStats{
						Name:        "gazeStreamer",
						Worker:      worker,
						Source:      source.ID,
						Frames:      frames,
						Uptime:      uptime,
						FPS:         fps,
						AvgProcTime: avgProcTime,
					}:
					case <-time.After(waitBeforeCancel):
					}
				}()

				for {
					select {
					case <-canx.Done():
						lgr.Logger.Info(
							"gaze streamer worker context cancelled",
							slog.Int("worker", worker),
						)
						return
					case f := <-in:
						start := time.Now()
						if !proc(tracker, f, worker) {
							return
						}
						frames++
						totalProcTime += time.Since(start) // Accumulate processing time
					}
				}
			}(i, tracker)
		}

		// Wait until cancelled
		<-canx.Done()
		// Give some time to the framer to recognize the context is cancelled
		time.Sleep(waitBeforeCancel)
		drainFrames(in)
		lgr.Logger.Info(
			"gaze streamer context cancelled",
		)
	}()

	return in, nil
}

// drainFrames releases frames left in a channel that nobody reads anymore.
func drainFrames(in chan FrameData) {
	for {
		select {
		case f := <-in:
			f.Mat.Close()
		default:
			return
		}
	}
}
