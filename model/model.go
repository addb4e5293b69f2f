package model

import (
	"fmt"
	"runtime/debug"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Source describes where frames come from: a camera device index or a video file.
type Source struct {
	ID     string `json:"id"`
	Type   string `json:"type"` // camera or file
	Device string `json:"device"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DirectionEvent is the per-frame outcome published by the reporter.
type DirectionEvent struct {
	Source     string `json:"source"`
	Frame      int    `json:"frame"`
	Direction  string `json:"direction"`
	LeftEye    bool   `json:"leftEye"`
	RightEye   bool   `json:"rightEye"`
	LeftPupil  bool   `json:"leftPupil"`
	RightPupil bool   `json:"rightPupil"`
	Threshold  int    `json:"threshold"`
	Changed    bool   `json:"changed"`
	Snapshot   string `json:"snapshot,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// SessionRecord is a completed quiz.
type SessionRecord struct {
	ID          string         `json:"id"`
	StartedAt   int64          `json:"startedAt"`
	CompletedAt int64          `json:"completedAt"`
	Answers     map[int]string `json:"answers"`
	Scores      map[string]int `json:"scores"`
	House       string         `json:"house"`
}

type ReporterStats struct {
	Name      string         `json:"name"`
	Frames    int            `json:"frames"`
	Changes   int            `json:"changes"`
	Snapshots int            `json:"snapshots"`
	Errors    int            `json:"errors"`
	Counts    map[string]int `json:"counts"`
	Uptime    int64          `json:"uptime"`
	Timestamp int64          `json:"timestamp"`
}

type StreamerStats struct {
	Name        string  `json:"name"`
	Worker      int     `json:"worker"`
	Source      string  `json:"source"`
	FPS         int     `json:"fps"`
	Frames      int     `json:"frames"`
	Errors      int     `json:"errors"`
	Uptime      int64   `json:"uptime"`
	AvgProcTime float64 `json:"avgProcTime"`
	Timestamp   int64   `json:"timestamp"`
}

type FramerStats struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	FPS       int    `json:"fps"`
	Frames    int    `json:"frames"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}

type AgentStats struct {
	ID        string `json:"id"`     // Agent ID
	Source    string `json:"source"` // Source ID
	Uptime    int64  `json:"uptime"` // Uptime of the agent
	Timestamp int64  `json:"timestamp"`
}
