package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/pipeline"
	"github.com/khaledhikmat/gaze-go/service/data"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

// Processor runs one mode until it finishes or the context is cancelled.
// args are the command line arguments after the mode name.
type Processor func(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	streamers []pipeline.Streamer,
	reporter pipeline.Reporter,
	args []string) error

func procStats(datasvc data.IService, stats interface{}) {
	var err error
	switch stats := stats.(type) {
	case model.AgentStats:
		err = datasvc.NewAgentStats(stats)
	case model.FramerStats:
		err = datasvc.NewFramerStats(stats)
	case model.StreamerStats:
		err = datasvc.NewStreamerStats(stats)
	case model.ReporterStats:
		err = datasvc.NewReporterStats(stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
		return
	}

	if err != nil {
		lgr.Logger.Error(
			"failed to store stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	lgr.Logger.Warn(
		"pipeline error",
		slog.Any("error", err),
	)

	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}

func saveSession(datasvc data.IService, rec model.SessionRecord) {
	err := datasvc.NewSession(rec)
	if err != nil {
		lgr.Logger.Error(
			"failed to store session",
			slog.String("session", rec.ID),
			slog.Any("error", err),
		)
	}
}
