package processing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"pizzadetector/internal/config"
	"pizzadetector/internal/models"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Trigger is told, without payload, that the target was seen.
type Trigger interface {
	Trigger()
}

type Settings struct {
	TargetLabel  string
	CropAndScale CropAndScale
	Threshold    float64
	// Timeout bounds one Predict call. Zero leaves it to the labeler.
	Timeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		TargetLabel:  config.DefaultTargetLabel,
		CropAndScale: CenterCrop,
		Threshold:    0.2,
	}
}

func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	crop, err := ParseCropAndScale(cfg.Detector.CropAndScale)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		TargetLabel:  cfg.Detector.TargetLabel,
		CropAndScale: crop,
		Threshold:    cfg.GetThreshold(),
		Timeout:      cfg.Detector.Timeout,
	}, nil
}

type Stats struct {
	Frames  int64
	Dropped int64
	Matches int64
}

// Detector labels frames and fires the trigger when the target label is
// among the results. Any failure for a frame means "nothing seen".
type Detector struct {
	labeler  Labeler
	trigger  Trigger
	settings Settings
	log      *logrus.Entry

	frames  atomic.Int64
	dropped atomic.Int64
	matches atomic.Int64
}

func NewDetector(labeler Labeler, trigger Trigger, settings Settings, log *logrus.Logger) *Detector {
	return &Detector{
		labeler:  labeler,
		trigger:  trigger,
		settings: settings,
		log:      log.WithField("component", "detector"),
	}
}

// Options builds a fresh prediction configuration.
func (d *Detector) Options() Options {
	return Options{
		CropAndScale: d.settings.CropAndScale,
		Threshold:    d.settings.Threshold,
	}
}

// Detect returns the labels of frame that match the target. It never fails:
// malformed frames and labeler errors yield nil.
func (d *Detector) Detect(ctx context.Context, frame *models.Frame) []models.Label {
	d.frames.Add(1)

	if err := ValidateFrame(frame); err != nil {
		d.drop(err)
		return nil
	}

	img := frame.Image
	if frame.Format == models.PixelFormatBGRA {
		img = swapRB(img)
	}
	img = upright(img, frame.Orientation)

	if d.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.settings.Timeout)
		defer cancel()
	}

	opts := d.Options()
	labels, err := d.labeler.Predict(ctx, img, opts)
	if err != nil {
		d.drop(err)
		return nil
	}

	var matches []models.Label
	for _, l := range labels {
		if l.Name == d.settings.TargetLabel && l.Confidence >= opts.Threshold {
			matches = append(matches, l)
		}
	}
	return matches
}

// OnFrame runs detection and fires the trigger once if anything matched,
// however many matches there were.
func (d *Detector) OnFrame(ctx context.Context, frame *models.Frame) {
	matches := d.Detect(ctx, frame)
	if len(matches) == 0 {
		return
	}

	d.matches.Add(1)
	d.log.WithFields(logrus.Fields{
		"label":      d.settings.TargetLabel,
		"confidence": matches[0].Confidence,
	}).Info("target detected, starting celebration")

	d.trigger.Trigger()
}

func (d *Detector) drop(err error) {
	d.dropped.Add(1)
	d.log.WithError(err).Debug("frame dropped")
}

func (d *Detector) Stats() Stats {
	return Stats{
		Frames:  d.frames.Load(),
		Dropped: d.dropped.Load(),
		Matches: d.matches.Load(),
	}
}

// ValidateFrame checks that frame carries a non-empty image in a supported
// pixel format.
func ValidateFrame(frame *models.Frame) error {
	switch {
	case frame == nil:
		return fmt.Errorf("%w: nil frame", ErrMalformedFrame)
	case frame.Image == nil:
		return fmt.Errorf("%w: no image", ErrMalformedFrame)
	case frame.Image.Bounds().Empty():
		return fmt.Errorf("%w: empty image", ErrMalformedFrame)
	case frame.Orientation < models.OrientationUp || frame.Orientation > models.OrientationLeft:
		return fmt.Errorf("%w: orientation %s", ErrMalformedFrame, frame.Orientation)
	}

	switch frame.Format {
	case models.PixelFormatRGBA, models.PixelFormatBGRA:
		return nil
	default:
		return fmt.Errorf("%w: unsupported pixel format %q", ErrMalformedFrame, frame.Format)
	}
}
