package inference

import "github.com/khaledhikmat/gaze-go/gaze"

// IService builds trackers and owns the live threshold shared by every
// worker of a run.
type IService interface {
	NewTracker() (*gaze.Tracker, error)
	Threshold() int
	SetThreshold(threshold int) int
	// There should be more input to CanSkipFrame than just the frame index
	CanSkipFrame(frame int) bool
}
