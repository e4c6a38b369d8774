package tracker

import (
	"time"

	"github.com/lthibault/jitterbug/v2"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type jitterTicker struct {
	t *jitterbug.Ticker
}

func (j *jitterTicker) C() <-chan time.Time { return j.t.C }
func (j *jitterTicker) Stop()               { j.t.Stop() }

// NewJitterTicker returns a ticker firing around every interval, with a small
// normal jitter so many views polling the same backend do not align.
func NewJitterTicker(interval time.Duration) Ticker {
	return &jitterTicker{t: jitterbug.New(interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})}
}
