package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

// Agent wires a source to its streamers and blocks until it is cancelled or
// the source runs dry. It fails right away when a streamer cannot start.
func Agent(canxCtx context.Context,
	svcs ServicesFactory,
	errorStream chan interface{},
	statsStream chan interface{},
	directionStream chan DirectionData,
	source model.Source,
	streamers []Streamer) error {
	agentID := uuid.NewString()
	lgr.Logger.Info(
		"agent starting....",
		slog.String("agentID", agentID),
		slog.String("source", source.ID),
		slog.String("type", source.Type),
		slog.String("device", source.Device),
		slog.Int("streamers", len(streamers)),
	)

	// OTEL stats
	var agentStartTime = time.Now().Unix()
	agentStats := model.AgentStats{
		ID:     agentID,
		Source: source.ID,
	}

	// Streamers and the framer stop with the agent
	agentCtx, agentCancel := context.WithCancel(canxCtx)
	defer agentCancel()

	// Setup the stream channels
	streamChannels := []chan FrameData{}
	for _, streamer := range streamers {
		streamChannel, err := streamer(agentCtx, svcs, source, errorStream, statsStream, directionStream)
		if err != nil {
			return xerrors.Errorf("agent %s cannot start its streamers: %w", agentID, err)
		}
		streamChannels = append(streamChannels, streamChannel)
	}

	// Start the agent frame capturer
	framerDone := make(chan struct{})
	go framer(agentCtx, svcs, source, errorStream, statsStream, streamChannels, framerDone)

	ticker := time.NewTicker(time.Duration(max(svcs.CfgSvc.GetAgentPeriodicTimeout(), 1)) * time.Second)
	defer ticker.Stop()

	// Monitor cancellations and report uptime
	for {
		select {
		case <-agentCtx.Done():
			lgr.Logger.Info(
				"agent context cancelled",
				slog.String("agentID", agentID),
			)
			return nil

		case <-framerDone:
			waitDrained(agentCtx, streamChannels)
			lgr.Logger.Info(
				"agent source exhausted",
				slog.String("agentID", agentID),
				slog.String("source", source.ID),
			)
			return nil

		case <-ticker.C:
			agentStats.Uptime = time.Now().Unix() - agentStartTime
			statsStream <- agentStats
		}
	}
}

// waitDrained gives the streamers a chance to finish the frames already
// queued once the source is exhausted.
func waitDrained(canxCtx context.Context, streamChannels []chan FrameData) {
	for {
		pending := 0
		for _, ch := range streamChannels {
			pending += len(ch)
		}
		if pending == 0 {
			break
		}

		select {
		case <-canxCtx.Done():
			return
		case <-time.After(waitBeforeCancel):
		}
	}

	// The last frames may still be in flight inside a worker.
	select {
	case <-canxCtx.Done():
	case <-time.After(2 * waitBeforeCancel):
	}
}
