package capture

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"pizzadetector/internal/models"
)

// GocvCamera captures directly from a local camera through OpenCV.
type GocvCamera struct {
	stopOnce sync.Once

	deviceID  int
	width     int
	height    int
	targetFPS uint

	orientation models.Orientation

	frameChan chan *models.Frame
	errChan   chan error
	stopChan  chan struct{}
}

func NewGocvCamera(deviceID int, targetFPS uint, width, height int) *GocvCamera {
	return &GocvCamera{
		deviceID:  deviceID,
		width:     width,
		height:    height,
		targetFPS: targetFPS,
		frameChan: make(chan *models.Frame),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
}

func (c *GocvCamera) Start() error {
	webcam, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	if c.targetFPS > 0 {
		webcam.Set(gocv.VideoCaptureFPS, float64(c.targetFPS))
	}

	go c.readLoop(webcam)

	return nil
}

func (c *GocvCamera) readLoop(webcam *gocv.VideoCapture) {
	defer close(c.frameChan)
	defer close(c.errChan)
	defer webcam.Close()

	raw := gocv.NewMat()
	defer raw.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()
	rgba := gocv.NewMat()
	defer rgba.Close()

	size := image.Pt(c.width, c.height)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		if ok := webcam.Read(&raw); !ok {
			c.errChan <- fmt.Errorf("camera %d closed", c.deviceID)
			return
		}
		if raw.Empty() {
			continue
		}

		src := raw
		if raw.Cols() != c.width || raw.Rows() != c.height {
			gocv.Resize(raw, &scaled, size, 0, 0, gocv.InterpolationLinear)
			src = scaled
		}

		gocv.CvtColor(src, &rgba, gocv.ColorBGRToRGBA)
		if rgba.Empty() {
			continue
		}

		img, err := rgba.ToImage()
		if err != nil {
			continue
		}

		frame := models.NewFrame(img, models.PixelFormatRGBA)
		frame.Orientation = c.orientation
		offer(c.frameChan, frame)
	}
}

func (c *GocvCamera) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *GocvCamera) setOrientation(o models.Orientation) { c.orientation = o }

func (c *GocvCamera) FrameChan() <-chan *models.Frame { return c.frameChan }
func (c *GocvCamera) ErrorChan() <-chan error         { return c.errChan }
