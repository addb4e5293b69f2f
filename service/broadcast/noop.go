package broadcast

import "github.com/khaledhikmat/gaze-go/model"

type noopService struct {
}

// NewNoop is used when no broadcast address is configured.
func NewNoop() IService {
	return &noopService{}
}

func (svc *noopService) Publish(_ model.DirectionEvent) error {
	return nil
}

func (svc *noopService) Clients() int {
	return 0
}

func (svc *noopService) Close() error {
	return nil
}
