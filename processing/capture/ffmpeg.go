package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"

	"pizzadetector/internal/models"
)

const bytesPerPixel = 4

var errPipeStopped = errors.New("ffmpeg pipe stopped")

// ffmpegPipe runs ffmpeg with rawvideo rgba output on stdout and slices the
// byte stream into frames of width*height*4.
type ffmpegPipe struct {
	bin    string
	args   []string
	width  int
	height int
	// pace limits reads to one frame per tick. Zero reads as fast as ffmpeg
	// produces.
	pace        time.Duration
	orientation models.Orientation

	// mu guards cmd and stopped. Only readLoop waits on cmd.
	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool

	frameChan chan *models.Frame
	errChan   chan error
	stopChan  chan struct{}
}

func newFFmpegPipe(args []string, width, height int, pace time.Duration) *ffmpegPipe {
	return &ffmpegPipe{
		bin:       "ffmpeg",
		args:      args,
		width:     width,
		height:    height,
		pace:      pace,
		frameChan: make(chan *models.Frame),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
}

func rawvideoArgs(input []string, fps uint, width, height int) []string {
	args := append([]string{}, input...)
	return append(args,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", fps, width, height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	)
}

func (p *ffmpegPipe) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return errPipeStopped
	}
	if p.cmd != nil {
		return fmt.Errorf("%s already started", p.bin)
	}

	var stderr bytes.Buffer
	cmd := exec.Command(p.bin, p.args...)
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s start error: %w. Details: %s", p.bin, err, stderr.String())
	}
	p.cmd = cmd

	go p.readLoop(cmd, stdout)

	return nil
}

func (p *ffmpegPipe) readLoop(cmd *exec.Cmd, stdout io.Reader) {
	defer close(p.frameChan)
	defer close(p.errChan)
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	var tick <-chan time.Time
	if p.pace > 0 {
		ticker := time.NewTicker(p.pace)
		defer ticker.Stop()
		tick = ticker.C
	}

	buffer := make([]byte, p.width*p.height*bytesPerPixel)

	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		if tick != nil {
			select {
			case <-p.stopChan:
				return
			case <-tick:
			}
		}

		if _, err := io.ReadFull(stdout, buffer); err != nil {
			select {
			case <-p.stopChan:
			default:
				p.errChan <- fmt.Errorf("read error: %w", err)
			}
			return
		}

		pixelData := make([]byte, len(buffer))
		copy(pixelData, buffer)

		img := &image.RGBA{
			Pix:    pixelData,
			Stride: p.width * bytesPerPixel,
			Rect:   image.Rect(0, 0, p.width, p.height),
		}

		frame := models.NewFrame(img, models.PixelFormatRGBA)
		frame.Orientation = p.orientation
		offer(p.frameChan, frame)
	}
}

// Stop kills the process. readLoop notices the closed pipe, reaps the
// process and closes the channels.
func (p *ffmpegPipe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopChan)

	if p.cmd != nil {
		p.cmd.Process.Kill()
	}
}

func (p *ffmpegPipe) setOrientation(o models.Orientation) { p.orientation = o }

func (p *ffmpegPipe) FrameChan() <-chan *models.Frame { return p.frameChan }
func (p *ffmpegPipe) ErrorChan() <-chan error         { return p.errChan }
