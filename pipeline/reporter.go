package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

// NewJournal is the rotating per-frame direction log.
func NewJournal(fileName string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7,    // days
		Compress:   true, // compress old logs
	}
}

// DirectionReporter journals every processed frame, prints and snapshots
// direction changes and publishes events to broadcast viewers.
func DirectionReporter(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, statsStream chan interface{}) chan DirectionData {
	journal := NewJournal(svcs.CfgSvc.GetJournalFile())
	return reporter(canx, svcs, errorStream, statsStream, journal, NewConsole(nil))
}

func reporter(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, statsStream chan interface{}, journal io.WriteCloser, console *Console) chan DirectionData {
	in := make(chan DirectionData, 100)

	go func() {
		defer journal.Close()

		beginTime := time.Now().Unix()
		stats := model.ReporterStats{
			Name:   "directionReporter",
			Counts: map[string]int{},
		}
		lastFrame := -1
		last := gaze.Direction("")

		report := func() {
			stats.Uptime = time.Now().Unix() - beginTime
			counts := make(map[string]int, len(stats.Counts))
			for k, v := range stats.Counts {
				counts[k] = v
			}
			out := stats
			out.Counts = counts

			select {
			case statsStream <- out:
			case <-time.After(waitBeforeCancel):
			}
		}
		defer report()

		proc := func(d DirectionData) {
			defer d.Mat.Close()

			stats.Frames++
			stats.Counts[string(d.Result.Direction)]++

			// Workers may finish out of order; only newer frames can change
			// the direction.
			changed := false
			if d.Frame > lastFrame {
				lastFrame = d.Frame
				changed = d.Result.Direction != last
				last = d.Result.Direction
			}

			event := NewDirectionEvent(d, changed)

			if changed {
				stats.Changes++
				console.Update(d.Source.ID, d.Frame, d.Result.Direction)

				if svcs.CfgSvc.GetSnapshots() && !d.Mat.Empty() {
					stored, err := snapshot(svcs, d)
					if err != nil {
						stats.Errors++
						errorStream <- model.GenError("direction_reporter",
							err,
							map[string]interface{}{"frame": d.Frame},
							"error storing snapshot for %s", d.Source.ID)
					} else {
						stats.Snapshots++
						event.Snapshot = stored
					}
				}
			}

			line, err := json.Marshal(event)
			if err == nil {
				_, err = journal.Write(append(line, '\n'))
			}
			if err != nil {
				stats.Errors++
				lgr.Logger.Error(
					"error writing direction journal",
					slog.Any("error", xerrors.Errorf("journal: %w", err)),
				)
			}

			if svcs.BroadcastSvc != nil {
				err = svcs.BroadcastSvc.Publish(event)
				if err != nil {
					stats.Errors++
					lgr.Logger.Debug("error publishing direction event", slog.Any("error", err))
				}
			}
		}

		ticker := time.NewTicker(time.Duration(max(svcs.CfgSvc.GetAgentPeriodicTimeout(), 1)) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info(
					"reporter context cancelled",
				)
				time.Sleep(waitBeforeCancel)
				drainDirections(in)
				return

			case <-ticker.C:
				report()

			case d := <-in:
				proc(d)
			}
		}
	}()

	return in
}

// NewDirectionEvent summarizes a processed frame.
func NewDirectionEvent(d DirectionData, changed bool) model.DirectionEvent {
	return model.DirectionEvent{
		Source:     d.Source.ID,
		Frame:      d.Frame,
		Direction:  string(d.Result.Direction),
		LeftEye:    d.Result.LeftEye != nil,
		RightEye:   d.Result.RightEye != nil,
		LeftPupil:  d.Result.LeftEye.Detected(),
		RightPupil: d.Result.RightEye.Detected(),
		Threshold:  d.Threshold,
		Changed:    changed,
		Timestamp:  d.Timestamp.UnixMilli(),
	}
}

// snapshot writes the annotated frame and hands it to the storage service.
func snapshot(svcs ServicesFactory, d DirectionData) (string, error) {
	folder := svcs.CfgSvc.GetRecordingsFolder()
	err := os.MkdirAll(folder, 0755)
	if err != nil {
		return "", xerrors.Errorf("create %s: %w", folder, err)
	}

	fileName := filepath.Join(folder, fmt.Sprintf("%s_%06d_%s.png", d.Source.ID, d.Frame, d.Result.Direction))
	if ok := gocv.IMWrite(fileName, d.Mat); !ok {
		return "", xerrors.Errorf("error writing %s", fileName)
	}

	if svcs.StorageSvc == nil {
		return fileName, nil
	}
	return svcs.StorageSvc.StoreFile(fileName)
}

func drainDirections(in chan DirectionData) {
	for {
		select {
		case d := <-in:
			d.Mat.Close()
		default:
			return
		}
	}
}
