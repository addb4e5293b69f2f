package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/pipeline"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

// Monitor runs the headless pipeline over the configured source: framer,
// gaze streamers and the direction reporter. It returns when cancelled or
// when a file source runs out of frames.
func Monitor(canxCtx context.Context, svcs pipeline.ServicesFactory, streamers []pipeline.Streamer, reporter pipeline.Reporter, _ []string) error {
	monitorCtx, monitorCancel := context.WithCancel(canxCtx)
	defer monitorCancel()

	// Streams are never closed: late senders exit on cancellation instead
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	directionStream := reporter(monitorCtx, svcs, errorStream, statsStream)

	source := pipeline.SourceFromConfig(svcs.CfgSvc)
	agentResult := make(chan error, 1)
	go func() {
		agentResult <- pipeline.Agent(monitorCtx, svcs, errorStream, statsStream, directionStream, source, streamers)
	}()

	// Wait for cancellation, agent exit, stats or error
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"monitor context cancelled",
			)
			goto resume

		case err := <-agentResult:
			if err != nil {
				procError(svcs.DataSvc, model.GenError("monitor",
					err,
					map[string]interface{}{},
					"agent for %s failed", source.ID))
			}
			lgr.Logger.Info(
				"monitor agent exited",
				slog.String("source", source.ID),
			)
			goto resume

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

	// Wait in a non-blocking way for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are existing
resume:
	monitorCancel()
	lgr.Logger.Info(
		"monitor is waiting for all go routines to exit",
	)

	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"monitor shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)

			return nil

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}
