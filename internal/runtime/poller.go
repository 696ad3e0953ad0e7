package runtime

import (
	"context"
	"sync"
	"time"
)

// Poller runs named periodic jobs. Starting a job under a name that is
// already running replaces it, so at most one job per name is ever active.
type Poller struct {
	ctx context.Context

	mu    sync.Mutex
	polls map[string]*poll
	wg    sync.WaitGroup
}

type poll struct {
	cancel   context.CancelFunc
	interval time.Duration
}

// NewPoller returns a Poller whose jobs stop when ctx is done.
func NewPoller(ctx context.Context) *Poller {
	return &Poller{ctx: ctx, polls: make(map[string]*poll)}
}

// Start runs fn now and then every interval until the job is stopped or
// replaced. fn receives a context that is cancelled when that happens.
func (p *Poller) Start(name string, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.polls[name]; ok {
		old.cancel()
	}
	ctx, cancel := context.WithCancel(p.ctx)
	p.polls[name] = &poll{cancel: cancel, interval: interval}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			fn(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the named job. Stopping a job that is not running is a no-op.
func (p *Poller) Stop(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.polls[name]; ok {
		old.cancel()
		delete(p.polls, name)
	}
}

// Active reports whether the named job runs and its interval.
func (p *Poller) Active(name string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pl, ok := p.polls[name]; ok {
		return pl.interval, true
	}
	return 0, false
}

// StopAll stops every job and waits for them to return.
func (p *Poller) StopAll() {
	p.mu.Lock()
	for name, pl := range p.polls {
		pl.cancel()
		delete(p.polls, name)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
