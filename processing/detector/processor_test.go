package processing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzadetector/internal/config"
	"pizzadetector/internal/log"
	"pizzadetector/internal/models"
)

type chanStreamer struct {
	frames chan *models.Frame
	errs   chan error
}

func newChanStreamer() *chanStreamer {
	return &chanStreamer{frames: make(chan *models.Frame), errs: make(chan error, 1)}
}

func (c *chanStreamer) Start() error                    { return nil }
func (c *chanStreamer) Stop()                           {}
func (c *chanStreamer) FrameChan() <-chan *models.Frame { return c.frames }
func (c *chanStreamer) ErrorChan() <-chan error         { return c.errs }

func newTestProcessor(labels []models.Label) (*Processor, *countingTrigger) {
	trigger := &countingTrigger{}
	det := NewDetector(&fakeLabeler{labels: labels}, trigger, DefaultSettings(), log.Nop())
	return NewProcessor(config.NewDefaultConfig(), det, log.Nop()), trigger
}

func TestProcessor_RoutesFramesToDetectorAndPreview(t *testing.T) {
	proc, trigger := newTestProcessor([]models.Label{{Name: "pizza", Confidence: 0.9}})
	streamer := newChanStreamer()

	require.NoError(t, <-proc.Start(streamer))
	defer proc.Stop()
	assert.True(t, proc.IsActive())

	frame := rgbaFrame()
	streamer.frames <- frame

	select {
	case img := <-proc.OutImageStream:
		assert.Same(t, frame.Image, img)
	case <-time.After(time.Second):
		t.Fatal("no preview frame")
	}

	assert.Equal(t, int32(1), trigger.n.Load())
	assert.Equal(t, int64(1), proc.Detector().Stats().Frames)
}

func TestProcessor_StreamerErrorIsReported(t *testing.T) {
	proc, _ := newTestProcessor(nil)
	streamer := newChanStreamer()

	require.NoError(t, <-proc.Start(streamer))
	defer proc.Stop()

	streamer.errs <- errors.New("camera unplugged")

	select {
	case err := <-proc.ErrChan:
		assert.EqualError(t, err, "camera unplugged")
	case <-time.After(time.Second):
		t.Fatal("expected error")
	}

	assert.Eventually(t, func() bool { return !proc.IsActive() }, time.Second, 5*time.Millisecond)
}

func TestProcessor_StopDeactivates(t *testing.T) {
	proc, _ := newTestProcessor(nil)

	require.NoError(t, <-proc.Start(newChanStreamer()))
	proc.Stop()
	proc.Stop()

	assert.False(t, proc.IsActive())
}

func TestProcessor_RestartReplacesSession(t *testing.T) {
	proc, trigger := newTestProcessor([]models.Label{{Name: "pizza", Confidence: 0.9}})

	first := newChanStreamer()
	require.NoError(t, <-proc.Start(first))

	second := newChanStreamer()
	require.NoError(t, <-proc.Start(second))
	defer proc.Stop()

	second.frames <- rgbaFrame()
	<-proc.OutImageStream

	assert.True(t, proc.IsActive())
	assert.Equal(t, int32(1), trigger.n.Load())
}
