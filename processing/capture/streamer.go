package capture

import (
	"pizzadetector/internal/models"
)

// VideoStreamer produces camera frames. Implementations never block on a
// slow consumer: a frame that cannot be delivered immediately is dropped.
type VideoStreamer interface {
	Start() error
	Stop()
	FrameChan() <-chan *models.Frame
	ErrorChan() <-chan error
}

// offer hands frame to out unless the consumer is still busy with the
// previous one.
func offer(out chan<- *models.Frame, frame *models.Frame) bool {
	select {
	case out <- frame:
		return true
	default:
		return false
	}
}
