// Package celebration plays the flying-sprite effect shown when the target
// label is detected.
package celebration

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stage is the visual surface the sprites live on. All methods are called
// from the scheduler's context.
type Stage interface {
	Size() Size
	// Show adds a sprite for item at item.Start and animates it to
	// item.Target over item.Duration. done must be called on the scheduler's
	// context when the animation has completed.
	Show(item *Item, done func())
	// Remove detaches the sprite for item.
	Remove(item *Item)
}

type Options struct {
	Count    int
	Duration time.Duration
	Jitter   float64
	// Rand is only used on the scheduler's context. Nil picks a random seed.
	Rand *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		Count:    10,
		Duration: 2 * time.Second,
		Jitter:   50,
	}
}

// Spawner turns a detection into a batch of independently animated items.
// There is no cap on items in flight: repeated triggers stack up.
type Spawner struct {
	stage Stage
	sched Scheduler
	log   *logrus.Entry
	opts  Options
	rng   *rand.Rand

	triggers atomic.Int64
	spawned  atomic.Int64
	active   atomic.Int64
}

func NewSpawner(stage Stage, sched Scheduler, log *logrus.Logger, opts Options) *Spawner {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Spawner{
		stage: stage,
		sched: sched,
		log:   log.WithField("component", "celebration"),
		opts:  opts,
		rng:   rng,
	}
}

// Trigger schedules one batch on the UI context. Safe from any goroutine.
func (s *Spawner) Trigger() {
	s.triggers.Add(1)
	s.sched.Do(s.spawnBatch)
}

func (s *Spawner) spawnBatch() {
	for i := 0; i < s.opts.Count; i++ {
		s.spawn()
	}
	s.log.WithFields(logrus.Fields{
		"count":  s.opts.Count,
		"active": s.active.Load(),
	}).Debug("celebration batch spawned")
}

func (s *Spawner) spawn() {
	screen := s.stage.Size()

	item := NewItem(
		StartPoint(s.rng, screen, s.opts.Jitter),
		Destination(s.rng, screen),
		s.opts.Duration,
	)

	s.launch(item)
}

// launch hands item to the stage. An item that cannot begin animating is
// never shown.
func (s *Spawner) launch(item *Item) bool {
	if err := item.Begin(); err != nil {
		s.log.WithError(err).WithField("item", item.ID).Warn("item not launched")
		return false
	}

	s.spawned.Add(1)
	s.active.Add(1)

	s.stage.Show(item, func() {
		s.stage.Remove(item)
		if err := item.Finish(); err != nil {
			s.log.WithError(err).WithField("item", item.ID).Warn("item completed twice")
			return
		}
		s.active.Add(-1)
	})

	return true
}

// Triggers is the number of detections handed to the spawner.
func (s *Spawner) Triggers() int64 { return s.triggers.Load() }

// Spawned is the number of items created so far.
func (s *Spawner) Spawned() int64 { return s.spawned.Load() }

// Active is the number of items still animating.
func (s *Spawner) Active() int64 { return s.active.Load() }
