package broadcast

import "github.com/khaledhikmat/gaze-go/model"

// IService pushes direction events to connected viewers.
type IService interface {
	Publish(event model.DirectionEvent) error
	Clients() int
	Close() error
}

// ThresholdFunc applies a threshold requested by a viewer and returns the
// value actually in effect.
type ThresholdFunc func(threshold int) int

// control is the only message viewers may send.
type control struct {
	Threshold *int `json:"threshold"`
}

// ack answers a control message.
type ack struct {
	Threshold int `json:"threshold"`
}
