package celebration

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogStage is a Stage without a window: sprites exist only as log lines and
// complete after their duration.
type LogStage struct {
	size  Size
	sched Scheduler
	log   *logrus.Entry
	after func(d time.Duration, fn func())
}

func NewLogStage(size Size, sched Scheduler, log *logrus.Logger) *LogStage {
	return &LogStage{
		size:  size,
		sched: sched,
		log:   log.WithField("component", "stage"),
		after: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

func (l *LogStage) Size() Size { return l.size }

func (l *LogStage) Show(item *Item, done func()) {
	l.log.WithFields(logrus.Fields{
		"item": item.ID,
		"from": item.Start,
		"to":   item.Target,
	}).Debug("sprite launched")

	l.after(item.Duration, func() { l.sched.Do(done) })
}

func (l *LogStage) Remove(item *Item) {
	l.log.WithField("item", item.ID).Debug("sprite removed")
}
