package actor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrNameInUse is returned by Spawn when an actor with the same name is
// already running.
var ErrNameInUse = errors.New("actor name already in use")

// System owns a registry of named actors and their goroutines.
type System struct {
	name string
	log  zerolog.Logger

	mu    sync.RWMutex
	cells map[string]*cell
	down  bool

	wg sync.WaitGroup

	restartHook func(name string)
}

// Option configures a System.
type Option func(*System)

// WithRestartHook registers a callback invoked with the actor name on every
// supervised restart. Used to feed metrics.
func WithRestartHook(hook func(name string)) Option {
	return func(s *System) { s.restartHook = hook }
}

// NewSystem creates an actor system.
func NewSystem(name string, log zerolog.Logger, opts ...Option) *System {
	s := &System{
		name:  name,
		log:   log.With().Str("system", name).Logger(),
		cells: make(map[string]*cell),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpawnOption configures a single actor.
type SpawnOption func(*cell)

// WithBackoff bounds the supervised restart delay. Jitter is applied on top.
func WithBackoff(min, max time.Duration) SpawnOption {
	return func(c *cell) {
		c.backoffMin = min
		c.backoffMax = max
	}
}

// Spawn starts a named actor built by factory. The factory is invoked again
// on every supervised restart so the actor can rebuild its state from
// scratch (typically by replaying its journal in PreStart).
func (s *System) Spawn(name string, factory func() Actor, opts ...SpawnOption) (*Ref, error) {
	c := &cell{
		system:     s,
		name:       name,
		factory:    factory,
		mb:         newMailbox(),
		done:       make(chan struct{}),
		timers:     make(map[int64]func()),
		backoffMin: time.Second,
		backoffMax: 30 * time.Second,
		log:        s.log.With().Str("actor", name).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.self = &Ref{name: name, system: s, send: c.mb.push}

	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return nil, errors.New("actor system is shut down")
	}
	if _, ok := s.cells[name]; ok {
		s.mu.Unlock()
		return nil, ErrNameInUse
	}
	s.cells[name] = c
	s.mu.Unlock()

	s.wg.Add(1)
	go c.run()
	return c.self, nil
}

// Lookup resolves a running actor by name.
func (s *System) Lookup(name string) (*Ref, bool) {
	s.mu.RLock()
	c, ok := s.cells[name]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.self, true
}

// Tell sends msg to the actor registered under address, or drops it as a
// dead letter.
func (s *System) Tell(address string, msg Message, sender *Ref) {
	ref, ok := s.Lookup(address)
	if !ok {
		s.deadLetter(address, msg)
		return
	}
	ref.Tell(msg, sender)
}

// Ask sends msg to target and waits for the first reply. The deadline comes
// from ctx; expiry fails the caller but does not disturb the target.
func (s *System) Ask(ctx context.Context, target *Ref, msg Message) (Message, error) {
	ch := make(chan Message, 1)
	reply := &Ref{
		name:   target.Name() + ".reply",
		system: s,
		send: func(e Envelope) bool {
			select {
			case ch <- e.Msg:
			default:
			}
			return true
		},
	}
	target.Tell(msg, reply)

	select {
	case m := <-ch:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops every actor and waits for their goroutines, bounded by ctx.
func (s *System) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.down = true
	cells := make([]*cell, 0, len(s.cells))
	for _, c := range s.cells {
		cells = append(cells, c)
	}
	s.mu.Unlock()

	for _, c := range cells {
		c.requestStop()
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *System) deadLetter(address string, msg Message) {
	s.log.Debug().Str("address", address).Type("msg", msg).Msg("dead letter")
}

func (s *System) unregister(name string) {
	s.mu.Lock()
	delete(s.cells, name)
	s.mu.Unlock()
}

// cell holds one actor instance, its mailbox and its supervision state.
type cell struct {
	system  *System
	name    string
	factory func() Actor
	actor   Actor
	mb      *mailbox
	self    *Ref
	log     zerolog.Logger

	backoffMin time.Duration
	backoffMax time.Duration

	done     chan struct{}
	stopOnce sync.Once
	stopping atomic.Bool

	tmu      sync.Mutex
	timerSeq int64
	timers   map[int64]func()
}

func (c *cell) run() {
	defer c.system.wg.Done()

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = c.backoffMin
	boff.MaxInterval = c.backoffMax
	boff.RandomizationFactor = 0.2
	boff.MaxElapsedTime = 0
	lastRestart := time.Time{}

	for {
		c.actor = c.factory()
		crashed := false

		if err := c.preStart(); err != nil {
			c.log.Error().Err(err).Msg("actor start failed")
			crashed = true
		} else {
			crashed = c.loop()
		}

		c.cancelTimers()
		if !crashed {
			c.finish()
			return
		}

		// A long quiet stretch since the previous restart means the actor
		// was healthy; start the delay ladder over.
		if !lastRestart.IsZero() && time.Since(lastRestart) > c.backoffMax {
			boff.Reset()
		}
		lastRestart = time.Now()
		if c.system.restartHook != nil {
			c.system.restartHook(c.name)
		}

		delay := boff.NextBackOff()
		c.log.Warn().Dur("delay", delay).Msg("restarting actor")
		select {
		case <-time.After(delay):
		case <-c.done:
			c.finish()
			return
		}
	}
}

// loop drains the mailbox until stop; it reports true when the actor
// panicked and needs a restart.
func (c *cell) loop() (crashed bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("actor crashed")
			crashed = true
		}
	}()

	for {
		e, ok := c.mb.next(c.done)
		if !ok {
			return false
		}
		c.actor.Receive(&Context{cell: c, sender: e.Sender}, e.Msg)
		if c.stopping.Load() {
			return false
		}
	}
}

func (c *cell) preStart() (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("actor panicked during start")
			err = errors.New("panic during start")
		}
	}()
	if starter, ok := c.actor.(Starter); ok {
		return starter.PreStart(&Context{cell: c})
	}
	return nil
}

func (c *cell) finish() {
	c.mb.close()
	c.system.unregister(c.name)
	if stopper, ok := c.actor.(Stopper); ok {
		stopper.PostStop(&Context{cell: c})
	}
	c.log.Debug().Msg("actor stopped")
}

func (c *cell) requestStop() {
	c.stopping.Store(true)
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *cell) scheduleOnce(d time.Duration, msg Message) func() {
	c.tmu.Lock()
	id := c.timerSeq
	c.timerSeq++
	t := time.AfterFunc(d, func() {
		c.removeTimer(id)
		c.self.Tell(msg, nil)
	})
	c.timers[id] = func() { t.Stop() }
	c.tmu.Unlock()
	return func() { c.removeTimer(id) }
}

func (c *cell) scheduleEvery(d time.Duration, msg Message) func() {
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(stop) }) }

	c.tmu.Lock()
	id := c.timerSeq
	c.timerSeq++
	c.timers[id] = cancel
	c.tmu.Unlock()

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.self.Tell(msg, nil)
			case <-stop:
				return
			}
		}
	}()
	return func() {
		c.removeTimer(id)
	}
}

func (c *cell) removeTimer(id int64) {
	c.tmu.Lock()
	cancel, ok := c.timers[id]
	delete(c.timers, id)
	c.tmu.Unlock()
	if ok {
		cancel()
	}
}

func (c *cell) cancelTimers() {
	c.tmu.Lock()
	timers := c.timers
	c.timers = make(map[int64]func())
	c.tmu.Unlock()
	for _, cancel := range timers {
		cancel()
	}
}
