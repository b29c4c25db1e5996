package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzadetector/internal/log"
	"pizzadetector/internal/models"
)

type fakeStreamer struct {
	startErr error
	// startDelay holds the session queue inside Start.
	startDelay time.Duration
	starts     atomic.Int32

	mu      sync.Mutex
	started bool
	stopped bool

	frames chan *models.Frame
	errs   chan error
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{
		frames: make(chan *models.Frame),
		errs:   make(chan error, 1),
	}
}

func (f *fakeStreamer) Start() error {
	f.starts.Add(1)
	time.Sleep(f.startDelay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return f.startErr
}

func (f *fakeStreamer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeStreamer) isStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeStreamer) FrameChan() <-chan *models.Frame { return f.frames }
func (f *fakeStreamer) ErrorChan() <-chan error         { return f.errs }

func testFrame() *models.Frame {
	return models.NewFrame(image.NewRGBA(image.Rect(0, 0, 4, 4)), models.PixelFormatRGBA)
}

func TestSession_DeliversFramesSerially(t *testing.T) {
	streamer := newFakeStreamer()
	session := NewSession(streamer, log.Nop())
	defer session.Stop()

	var inFlight, maxInFlight, delivered int32
	session.Handle(FrameHandlerFunc(func(ctx context.Context, frame *models.Frame) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&delivered, 1)
	}))

	require.NoError(t, <-session.Start())
	assert.True(t, streamer.isStarted())

	for i := 0; i < 5; i++ {
		streamer.frames <- testFrame()
	}
	close(streamer.frames)

	select {
	case <-session.Done():
	case <-time.After(time.Second):
		t.Fatal("delivery did not finish")
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&delivered))
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestSession_SkipsNilFrames(t *testing.T) {
	streamer := newFakeStreamer()
	session := NewSession(streamer, log.Nop())
	defer session.Stop()

	var delivered int32
	session.Handle(FrameHandlerFunc(func(context.Context, *models.Frame) {
		atomic.AddInt32(&delivered, 1)
	}))
	require.NoError(t, <-session.Start())

	streamer.frames <- nil
	streamer.frames <- testFrame()
	close(streamer.frames)
	<-session.Done()

	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}

func TestSession_StartWithoutHandler(t *testing.T) {
	session := NewSession(newFakeStreamer(), log.Nop())
	defer session.Stop()

	assert.ErrorIs(t, <-session.Start(), ErrNoHandler)
}

func TestSession_StartFailure(t *testing.T) {
	streamer := newFakeStreamer()
	streamer.startErr = errors.New("no device")

	session := NewSession(streamer, log.Nop())
	defer session.Stop()
	session.Handle(FrameHandlerFunc(func(context.Context, *models.Frame) {}))

	assert.EqualError(t, <-session.Start(), "no device")
	<-session.Done()
}

func TestSession_StartTwice(t *testing.T) {
	session := NewSession(newFakeStreamer(), log.Nop())
	defer session.Stop()
	session.Handle(FrameHandlerFunc(func(context.Context, *models.Frame) {}))

	require.NoError(t, <-session.Start())
	assert.ErrorIs(t, <-session.Start(), ErrAlreadyStarted)
}

func TestSession_StreamerErrorEndsDelivery(t *testing.T) {
	streamer := newFakeStreamer()
	session := NewSession(streamer, log.Nop())
	defer session.Stop()
	session.Handle(FrameHandlerFunc(func(context.Context, *models.Frame) {}))
	require.NoError(t, <-session.Start())

	streamer.errs <- errors.New("read error")

	select {
	case err := <-session.Err():
		assert.EqualError(t, err, "read error")
	case <-time.After(time.Second):
		t.Fatal("expected session error")
	}
	<-session.Done()
}

func TestSession_StopIsIdempotent(t *testing.T) {
	streamer := newFakeStreamer()
	session := NewSession(streamer, log.Nop())

	session.Stop()
	session.Stop()

	assert.ErrorIs(t, <-session.Start(), ErrSessionStopped)
	streamer.mu.Lock()
	defer streamer.mu.Unlock()
	assert.True(t, streamer.stopped)
}

func TestSession_StopBeforeQueuedStartRuns(t *testing.T) {
	streamer := newFakeStreamer()
	session := NewSession(streamer, log.Nop())
	session.Handle(FrameHandlerFunc(func(context.Context, *models.Frame) {}))

	// Occupy the queue so the start is still pending when Stop lands.
	session.queue <- func() { time.Sleep(20 * time.Millisecond) }
	result := session.Start()
	session.Stop()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrSessionStopped)
	case <-time.After(time.Second):
		t.Fatal("start result never arrived")
	}

	assert.Equal(t, int32(0), streamer.starts.Load())
	assert.False(t, streamer.isStarted())

	select {
	case <-session.Done():
	case <-time.After(time.Second):
		t.Fatal("session not marked done")
	}
}

func TestSession_StopDuringStreamerStart(t *testing.T) {
	streamer := newFakeStreamer()
	streamer.startDelay = 30 * time.Millisecond

	session := NewSession(streamer, log.Nop())
	session.Handle(FrameHandlerFunc(func(context.Context, *models.Frame) {}))

	result := session.Start()
	require.Eventually(t, func() bool { return streamer.starts.Load() == 1 }, time.Second, time.Millisecond)
	session.Stop()

	assert.ErrorIs(t, <-result, ErrSessionStopped)
	<-session.Done()
}
