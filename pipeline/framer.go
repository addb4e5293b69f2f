package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/config"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

// MaxReadFailures is how many reads in a row a camera may fail before it is
// treated as gone.
const MaxReadFailures = 100

// CameraGone reports whether a run of failed reads means the camera stopped
// delivering frames.
func CameraGone(failures int) bool {
	return failures >= MaxReadFailures
}

// SourceFromConfig describes the configured capture source.
func SourceFromConfig(cfgsvc config.IService) model.Source {
	device := cfgsvc.GetSourceDevice()
	return model.Source{
		ID:     fmt.Sprintf("%s-%s", cfgsvc.GetSourceType(), filepath.Base(device)),
		Type:   cfgsvc.GetSourceType(),
		Device: device,
		Width:  cfgsvc.GetFrameWidth(),
		Height: cfgsvc.GetFrameHeight(),
	}
}

// OpenCapture opens a camera by device index or a video file by path.
func OpenCapture(source model.Source) (*gocv.VideoCapture, error) {
	var device interface{} = source.Device
	if source.Type == "camera" {
		id, err := strconv.Atoi(source.Device)
		if err != nil {
			return nil, xerrors.Errorf("camera device must be an index, got %q", source.Device)
		}
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, xerrors.Errorf("error opening %s %s: %w", source.Type, source.Device, err)
	}

	if source.Type == "camera" {
		if source.Width > 0 {
			capture.Set(gocv.VideoCaptureFrameWidth, float64(source.Width))
		}
		if source.Height > 0 {
			capture.Set(gocv.VideoCaptureFrameHeight, float64(source.Height))
		}
	}

	return capture, nil
}

// framer reads frames until cancelled or until the source runs dry, and
// routes every kept frame to each stream channel. It closes done on exit.
func framer(canxCtx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData, done chan struct{}) {
	defer close(done)

	capture, err := OpenCapture(source)
	if err != nil {
		errorStream <- model.GenError("agent_framer",
			err,
			map[string]interface{}{},
			"error opening capture source %s", source.ID)
		return
	}
	defer capture.Close()

	var startTime = time.Now().Unix()
	var frames = 0
	var skippedFrames = 0
	var errors = 0
	var failures = 0

	defer func() {
		uptime := time.Now().Unix() - startTime
		fps := frames
		if uptime > 0 {
			fps = int(float64(frames) / float64(uptime))
		}
		select {
		case statsStream <- model.FramerStats{
			Name:    "framer",
			Source:  source.ID,
			Frames:  frames,
			Skipped: skippedFrames,
			Errors:  errors,
			Uptime:  uptime,
			FPS:     fps,
		}:
		case <-time.After(waitBeforeCancel):
		}

		lgr.Logger.Info(
			"framer exited",
			slog.String("source", source.ID),
			slog.Int("frames", frames),
			slog.Int("skipped", skippedFrames),
		)
	}()

	// Capture frames, route captured frames to streamers and monitor cancellations
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"framer context cancelled",
			)
			return

		default:
			img := gocv.NewMat()
			if ok := capture.Read(&img); !ok || img.Empty() {
				img.Close() // Crucial to close the image to avoid memory leaks
				if source.Type == "file" {
					// End of the video
					return
				}

				errors++
				failures++
				if CameraGone(failures) {
					errorStream <- model.GenError("agent_framer",
						xerrors.Errorf("%d consecutive failed reads", failures),
						map[string]interface{}{"frames": frames},
						"camera %s stopped delivering frames", source.ID)
					return
				}
				continue
			}
			failures = 0

			index := frames
			frames++
			// Determine if we should skip the frame
			if svcs.InferenceSvc.CanSkipFrame(index) {
				skippedFrames++
				img.Close() // Crucial to close the image to avoid memory leaks
				continue
			}

			for _, streamChan := range streamChannels {
				clone := img.Clone()
				select {
				case <-canxCtx.Done():
					lgr.Logger.Info("framer context cancelled while sending")
					clone.Close()
					img.Close() // Crucial to close the image to avoid memory leaks
					return
				case streamChan <- FrameData{Mat: clone, Index: index, Timestamp: time.Now()}:
					// Successfully sent to the channel
				}
			}

			img.Close() // Crucial to close the image to avoid memory leaks
		}
	}
}
