package models

import (
	"fmt"
	"image"
	"time"
)

type PixelFormat string

const (
	PixelFormatRGBA PixelFormat = "rgba"
	PixelFormatBGRA PixelFormat = "bgra"
)

// Orientation is the clockwise rotation that turns a captured image upright.
type Orientation int

const (
	OrientationUp Orientation = iota
	OrientationRight
	OrientationDown
	OrientationLeft
)

var orientationNames = [...]string{"up", "right", "down", "left"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

func ParseOrientation(s string) (Orientation, error) {
	if s == "" {
		return OrientationUp, nil
	}
	for i, name := range orientationNames {
		if name == s {
			return Orientation(i), nil
		}
	}
	return OrientationUp, fmt.Errorf("unknown orientation %q", s)
}

// Frame is one camera sample plus the context it was acquired in.
// A frame is handed to exactly one consumer and then discarded.
type Frame struct {
	Image       image.Image
	Format      PixelFormat
	Orientation Orientation
	CapturedAt  time.Time
}

func NewFrame(img image.Image, format PixelFormat) *Frame {
	return &Frame{
		Image:      img,
		Format:     format,
		CapturedAt: time.Now(),
	}
}
