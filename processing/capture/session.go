package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"pizzadetector/internal/models"
)

// FrameHandler receives every delivered frame. A session never calls it
// concurrently with itself.
type FrameHandler interface {
	OnFrame(ctx context.Context, frame *models.Frame)
}

type FrameHandlerFunc func(ctx context.Context, frame *models.Frame)

func (f FrameHandlerFunc) OnFrame(ctx context.Context, frame *models.Frame) { f(ctx, frame) }

var (
	ErrNoHandler      = errors.New("capture session has no frame handler")
	ErrSessionStopped = errors.New("capture session stopped")
	ErrAlreadyStarted = errors.New("capture session already started")
)

// Session owns a streamer for one run. Configuration and start-up run on a
// dedicated serial queue so callers never block on device setup, and frames
// are pushed to the handler from a single delivery goroutine.
type Session struct {
	log      *logrus.Entry
	streamer VideoStreamer

	mu      sync.Mutex
	handler FrameHandler
	started bool
	stopped bool

	queue  chan func()
	ctx    context.Context
	cancel context.CancelFunc

	errs chan error
	done chan struct{}
}

func NewSession(streamer VideoStreamer, log *logrus.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		log:      log.WithField("component", "capture"),
		streamer: streamer,
		queue:    make(chan func(), 4),
		ctx:      ctx,
		cancel:   cancel,
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}

	go s.runQueue()

	return s
}

func (s *Session) runQueue() {
	for task := range s.queue {
		task()
	}
}

// Handle registers the frame handler. It must be called before Start.
func (s *Session) Handle(h FrameHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Start configures and starts the streamer on the session queue. The
// returned channel yields the start-up result exactly once.
func (s *Session) Start() <-chan error {
	result := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		result <- ErrSessionStopped
		return result
	}

	if s.started {
		result <- ErrAlreadyStarted
		return result
	}
	s.started = true
	handler := s.handler

	s.queue <- func() {
		if s.ctx.Err() != nil {
			close(s.done)
			result <- ErrSessionStopped
			return
		}
		if handler == nil {
			close(s.done)
			result <- ErrNoHandler
			return
		}
		err := s.streamer.Start()
		if s.ctx.Err() != nil {
			// Stop landed while the streamer was starting.
			s.streamer.Stop()
			close(s.done)
			result <- ErrSessionStopped
			return
		}
		if err != nil {
			s.log.WithError(err).Error("streamer failed to start")
			close(s.done)
			result <- err
			return
		}
		s.log.Info("capture session running")
		go s.deliver(handler)
		result <- nil
	}

	return result
}

func (s *Session) deliver(handler FrameHandler) {
	defer close(s.done)

	frames := s.streamer.FrameChan()
	errs := s.streamer.ErrorChan()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				s.reportPending(errs)
				return
			}
			if frame == nil {
				continue
			}
			handler.OnFrame(s.ctx, frame)

		case err, ok := <-errs:
			if ok && err != nil {
				s.log.WithError(err).Warn("streamer error")
				s.errs <- err
			}
			return

		case <-s.ctx.Done():
			return
		}
	}
}

// reportPending forwards an error the streamer queued just before closing
// its frame channel.
func (s *Session) reportPending(errs <-chan error) {
	select {
	case err, ok := <-errs:
		if ok && err != nil && s.ctx.Err() == nil {
			s.log.WithError(err).Warn("streamer error")
			s.errs <- err
		}
	default:
	}
}

// Err yields a streamer failure, if one ends the session.
func (s *Session) Err() <-chan error { return s.errs }

// Done is closed once frame delivery has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true

	s.cancel()
	s.streamer.Stop()
	close(s.queue)
}
