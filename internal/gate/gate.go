// Package gate enforces a minimum wall-clock interval between outbound calls
// on a named channel.
//
// The interval is measured from the completion of the previous call to the
// start of the next one. A Gate serializes its callers: a Permit is held from
// Acquire until Release, and Release stamps the completion time.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

const (
	// ChannelCMSRead is the channel used for reads against the content management system
	ChannelCMSRead = "cms-read"

	// ChannelWorkspaceWrite is the channel used for writes against the workspace destination
	ChannelWorkspaceWrite = "workspace-write"

	// DefaultCMSReadInterval is the default minimum interval between CMS reads
	DefaultCMSReadInterval = 300 * time.Millisecond

	// DefaultWorkspaceWriteInterval is the default minimum interval between workspace writes
	DefaultWorkspaceWriteInterval = 500 * time.Millisecond
)

// Gate throttles calls on a single channel.
type Gate struct {
	name     string
	interval time.Duration
	clock    clock.Clock

	// sem is a one-slot semaphore held for the lifetime of a Permit
	sem chan struct{}

	mu   sync.Mutex
	last time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the clock used to measure intervals.
func WithClock(c clock.Clock) Option {
	return func(g *Gate) {
		g.clock = c
	}
}

// New creates a gate for the named channel. A zero or negative interval
// disables waiting but still serializes callers.
func New(name string, interval time.Duration, opts ...Option) *Gate {
	g := &Gate{
		name:     name,
		interval: interval,
		clock:    clock.RealClock{},
		sem:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the channel name.
func (g *Gate) Name() string {
	return g.name
}

// Interval returns the minimum interval between calls.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Permit grants the right to perform exactly one call.
type Permit struct {
	gate *Gate
	once sync.Once
}

// Release records the completion of the call and hands the channel to the next caller.
// Calling Release more than once is a no-op.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.gate.mu.Lock()
		p.gate.last = p.gate.clock.Now()
		p.gate.mu.Unlock()
		<-p.gate.sem
	})
}

// Acquire blocks until the channel is free and the interval since the last
// completed call has elapsed. The caller must Release the returned permit once
// the call has finished, whether it succeeded or not.
func (g *Gate) Acquire(ctx context.Context) (*Permit, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("gate %s: %w", g.name, ctx.Err())
	}

	if wait := g.remaining(); wait > 0 {
		timer := g.clock.NewTimer(wait)
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			<-g.sem
			return nil, fmt.Errorf("gate %s: %w", g.name, ctx.Err())
		}
	}

	return &Permit{gate: g}, nil
}

// Do runs fn under a permit.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	permit, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer permit.Release()
	return fn(ctx)
}

func (g *Gate) remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last.IsZero() {
		return 0
	}
	return g.interval - g.clock.Since(g.last)
}

// Registry owns one gate per channel for the lifetime of a process.
type Registry struct {
	mu    sync.Mutex
	gates map[string]*Gate
	opts  []Option
}

// NewRegistry creates a registry whose gates use the given intervals.
// Channels missing from intervals get a gate with no minimum interval.
func NewRegistry(intervals map[string]time.Duration, opts ...Option) *Registry {
	r := &Registry{gates: make(map[string]*Gate, len(intervals)), opts: opts}
	for name, interval := range intervals {
		r.gates[name] = New(name, interval, opts...)
	}
	return r
}

// DefaultIntervals returns the standard channel intervals.
func DefaultIntervals() map[string]time.Duration {
	return map[string]time.Duration{
		ChannelCMSRead:        DefaultCMSReadInterval,
		ChannelWorkspaceWrite: DefaultWorkspaceWriteInterval,
	}
}

// For returns the gate for a channel, creating an unthrottled one if the
// channel is unknown.
func (r *Registry) For(channel string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gates[channel]; ok {
		return g
	}
	g := New(channel, 0, r.opts...)
	r.gates[channel] = g
	return g
}
