package processing

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"pizzadetector/internal/config"
	"pizzadetector/internal/models"
)

// Labeler is an image-labeling model. Predict returns at most one label per
// class, each with confidence at or above opts.Threshold.
type Labeler interface {
	Predict(ctx context.Context, img image.Image, opts Options) ([]models.Label, error)
	Close() error
}

func NewLabeler(cfg *config.Config, log *logrus.Logger) (Labeler, error) {
	d := cfg.Detector

	switch d.Backend {
	case config.BackendYOLO, "":
		return NewYOLOLabeler(d.ModelPath, d.InputSize)
	case config.BackendRemote:
		return NewRemoteLabeler(d.RemoteHost, d.InputSize, d.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", d.Backend)
	}
}

func aboveThreshold(labels []models.Label, threshold float64) []models.Label {
	kept := labels[:0:0]
	for _, l := range labels {
		if l.Confidence >= threshold {
			kept = append(kept, l)
		}
	}
	return kept
}
