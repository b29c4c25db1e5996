package capture

import (
	"errors"
	"fmt"

	"pizzadetector/internal/config"
	"pizzadetector/internal/models"
)

var ErrUnknownSource = errors.New("unknown capture source")

// orientable sources stamp every frame with the configured orientation.
type orientable interface {
	setOrientation(models.Orientation)
}

func NewStreamer(t *config.Config) (VideoStreamer, error) {
	orientation, err := models.ParseOrientation(t.Orientation)
	if err != nil {
		return nil, err
	}

	var s VideoStreamer
	switch t.GetSource() {
	case config.SourceWebcam:
		s = NewFFmpegWebcam(t.Webcam.DeviceID, t.GetFPS(), t.GetWidth(), t.GetHeight())
	case config.SourceLocal:
		s, err = NewLocalStreamer(t.Local.Path, t.GetFPS(), t.GetWidth(), t.GetHeight())
		if err != nil {
			return nil, err
		}
	case config.SourceCamera:
		s = NewGocvCamera(t.Camera.DeviceID, t.GetFPS(), t.GetWidth(), t.GetHeight())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, t.GetSource())
	}

	if o, ok := s.(orientable); ok {
		o.setOrientation(orientation)
	}
	return s, nil
}
