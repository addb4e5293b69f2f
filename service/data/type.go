package data

import (
	"fmt"

	"github.com/khaledhikmat/gaze-go/model"
)

type IService interface {
	NewSession(rec model.SessionRecord) error
	RetrieveSessions() ([]model.SessionRecord, error)

	NewError(err interface{}) error
	NewAgentStats(stats model.AgentStats) error
	NewFramerStats(stats model.FramerStats) error
	NewStreamerStats(stats model.StreamerStats) error
	NewReporterStats(stats model.ReporterStats) error

	Close() error
}

// errorRecord is the persisted form of an error reported on an error stream.
type errorRecord struct {
	Timestamp  int64                  `json:"timestamp"`
	Processor  string                 `json:"processor"`
	Inner      string                 `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func toErrorRecord(err interface{}, now int64) errorRecord {
	rec := errorRecord{
		Timestamp:  now,
		Processor:  "N/A",
		StackTrace: "N/A",
	}

	switch e := err.(type) {
	case model.CustomError:
		rec.Processor = e.Processor
		rec.Message = e.Message
		rec.StackTrace = e.StackTrace
		rec.Misc = e.Misc
		if e.Inner != nil {
			rec.Inner = e.Inner.Error()
		}
	case error:
		rec.Inner = e.Error()
		rec.Message = e.Error()
	default:
		rec.Message = fmt.Sprintf("%v", e)
	}

	return rec
}
