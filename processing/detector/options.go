package processing

import "fmt"

// CropAndScale is how a frame is fitted to the model's square input.
type CropAndScale int

const (
	// CenterCrop keeps the largest centred square and scales it.
	CenterCrop CropAndScale = iota
	// ScaleFit scales the whole frame to fit and pads the rest.
	ScaleFit
	// ScaleFill stretches the whole frame, ignoring aspect ratio.
	ScaleFill
)

func (c CropAndScale) String() string {
	switch c {
	case CenterCrop:
		return "center-crop"
	case ScaleFit:
		return "scale-fit"
	case ScaleFill:
		return "scale-fill"
	default:
		return fmt.Sprintf("CropAndScale(%d)", int(c))
	}
}

func ParseCropAndScale(s string) (CropAndScale, error) {
	switch s {
	case "center-crop", "":
		return CenterCrop, nil
	case "scale-fit":
		return ScaleFit, nil
	case "scale-fill":
		return ScaleFill, nil
	default:
		return 0, fmt.Errorf("unknown crop and scale option %q", s)
	}
}

// Options is the per-frame prediction configuration. It is a value: each
// frame gets its own copy.
type Options struct {
	CropAndScale CropAndScale
	Threshold    float64
}
