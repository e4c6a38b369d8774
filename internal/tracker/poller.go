package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxRetries   = 45
)

// pollTarget is the work the poller drives on every tick.
type pollTarget interface {
	// step runs the status rules then reconciles against a fresh fetch.
	step(ctx context.Context)
	// clearAll force removes every pending job once the ceiling is reached.
	clearAll(ctx context.Context)
	idle() bool
}

type pollRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Poller runs the poll loop of a tracker while it has pending jobs.
// At most one loop is active; Ensure starts it if needed, Stop tears it down.
// Every tick counts toward MaxRetries, failed fetches included, and reaching
// it clears the whole registry.
type Poller struct {
	lock       sync.Mutex
	base       context.Context
	interval   time.Duration
	maxRetries int
	newTicker  TickerFactory
	target     pollTarget
	current    *pollRun
	retries    int
	name       string
}

func newPoller(base context.Context, name string, interval time.Duration, maxRetries int, newTicker TickerFactory, target pollTarget) *Poller {
	return &Poller{
		base:       base,
		name:       name,
		interval:   interval,
		maxRetries: maxRetries,
		newTicker:  newTicker,
		target:     target,
	}
}

// Ensure starts the loop unless one is already running.
func (p *Poller) Ensure() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.current != nil || p.base.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(p.base)
	run := &pollRun{cancel: cancel, done: make(chan struct{})}
	p.current = run
	p.retries = 0

	ticker := p.newTicker(p.interval)
	zap.S().Named("poller").Debugw("poll loop started", "view", p.name, "interval", p.interval)
	go p.loop(ctx, run, ticker)
}

// Stop tears the loop down and waits for it to exit. It is safe to call
// at any time, any number of times.
func (p *Poller) Stop() {
	p.lock.Lock()
	run := p.current
	p.current = nil
	p.retries = 0
	p.lock.Unlock()

	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

// StopIfIdle detaches the loop right away when nothing is pending, without
// waiting for the next tick. It does not wait for the loop goroutine to exit.
func (p *Poller) StopIfIdle() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.current == nil || !p.target.idle() {
		return false
	}
	p.current.cancel()
	p.current = nil
	p.retries = 0
	zap.S().Named("poller").Debugw("poll loop stopped, nothing pending", "view", p.name)
	return true
}

func (p *Poller) Running() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.current != nil
}

// Retries returns the number of ticks run by the current loop.
func (p *Poller) Retries() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.retries
}

func (p *Poller) loop(ctx context.Context, run *pollRun, ticker Ticker) {
	defer close(run.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		if stop := p.tick(ctx, run); stop {
			zap.S().Named("poller").Debugw("poll loop stopped", "view", p.name)
			return
		}
	}
}

// tick runs one iteration of the loop and reports whether the loop must exit.
func (p *Poller) tick(ctx context.Context, run *pollRun) bool {
	if p.finishIfIdle(run) {
		return true
	}

	p.target.step(ctx)
	if ctx.Err() != nil {
		return true
	}

	p.lock.Lock()
	if p.current != run {
		p.lock.Unlock()
		return true
	}
	p.retries++
	exhausted := p.retries >= p.maxRetries
	p.lock.Unlock()

	if exhausted {
		zap.S().Named("poller").Infow("retry ceiling reached, clearing pending jobs", "view", p.name, "retries", p.maxRetries)
		p.target.clearAll(ctx)
		p.lock.Lock()
		if p.current == run {
			p.retries = 0
		}
		p.lock.Unlock()
	}

	return p.finishIfIdle(run)
}

// finishIfIdle detaches the run when nothing is pending. The check and the
// detach happen under the poller lock, the same lock Ensure takes after a
// submission was inserted, so a new job either keeps this loop alive or
// starts a new one.
func (p *Poller) finishIfIdle(run *pollRun) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.current != run {
		return true
	}
	if !p.target.idle() {
		return false
	}
	p.current = nil
	p.retries = 0
	run.cancel()
	return true
}
