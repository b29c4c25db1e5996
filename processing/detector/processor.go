package processing

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pizzadetector/internal/config"
	"pizzadetector/internal/models"
	stream "pizzadetector/processing/capture"
)

// Processor drives one capture session through the detector and mirrors
// every frame to OutImageStream for preview.
type Processor struct {
	OutImageStream chan image.Image
	ErrChan        chan error

	det *Detector
	log *logrus.Logger

	mu            sync.RWMutex
	session       *stream.Session
	latency       time.Duration
	fps           uint
	frameCount    uint
	lastFpsUpdate time.Time
	active        bool
}

func NewProcessor(cfg *config.Config, det *Detector, log *logrus.Logger) *Processor {
	buffer := cfg.GetFPS()
	if buffer == 0 {
		buffer = 1
	}

	return &Processor{
		det:            det,
		log:            log,
		ErrChan:        make(chan error, 1),
		OutImageStream: make(chan image.Image, buffer),
	}
}

// Start replaces any running session with one reading from streamer. The
// returned channel yields the start-up result.
func (p *Processor) Start(streamer stream.VideoStreamer) <-chan error {
	p.Stop()

	session := stream.NewSession(streamer, p.log)
	session.Handle(p)

	p.mu.Lock()
	p.session = session
	p.active = true
	p.frameCount = 0
	p.lastFpsUpdate = time.Now()
	p.mu.Unlock()

	result := session.Start()
	go p.watch(session)

	return result
}

func (p *Processor) watch(session *stream.Session) {
	select {
	case err := <-session.Err():
		select {
		case p.ErrChan <- err:
		default:
		}
	case <-session.Done():
	}

	p.mu.Lock()
	if p.session == session {
		p.active = false
	}
	p.mu.Unlock()
}

// OnFrame is called by the session for each frame, one at a time.
func (p *Processor) OnFrame(ctx context.Context, frame *models.Frame) {
	start := time.Now()

	p.det.OnFrame(ctx, frame)

	select {
	case p.OutImageStream <- frame.Image:
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.latency = time.Since(start)
	p.frameCount++
	if time.Since(p.lastFpsUpdate) >= time.Second {
		p.fps = p.frameCount
		p.frameCount = 0
		p.lastFpsUpdate = time.Now()
	}
}

func (p *Processor) Stop() {
	p.mu.Lock()
	session := p.session
	p.session = nil
	p.active = false
	p.mu.Unlock()

	if session != nil {
		session.Stop()
	}
}

func (p *Processor) IsActive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

func (p *Processor) Latency() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latency
}

func (p *Processor) FPS() uint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fps
}

func (p *Processor) Detector() *Detector { return p.det }
