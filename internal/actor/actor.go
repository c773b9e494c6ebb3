// Package actor is a minimal mailbox runtime. Each actor is one goroutine
// draining an unbounded FIFO queue, so an actor mutates its own state
// without locks. Crashed actors are restarted under exponential backoff
// with jitter.
package actor

import (
	"time"

	"github.com/rs/zerolog"
)

// Message is anything an actor can receive.
type Message = any

// Envelope pairs a message with the ref that sent it.
type Envelope struct {
	Msg    Message
	Sender *Ref
}

// Actor processes one message at a time from its own mailbox.
type Actor interface {
	Receive(c *Context, msg Message)
}

// Starter is implemented by actors that need setup before their first
// message, typically journal recovery. PreStart runs again after every
// supervised restart; a returned error counts as a crash and triggers
// another backoff restart.
type Starter interface {
	PreStart(c *Context) error
}

// Stopper is implemented by actors that need teardown after their last
// message.
type Stopper interface {
	PostStop(c *Context)
}

// Context is handed to an actor for each message it processes. It is only
// valid for the duration of that message.
type Context struct {
	cell   *cell
	sender *Ref
}

// Self returns the ref of the current actor.
func (c *Context) Self() *Ref { return c.cell.self }

// Sender returns the ref the current message was sent from, or nil.
func (c *Context) Sender() *Ref { return c.sender }

// System returns the actor system.
func (c *Context) System() *System { return c.cell.system }

// Log returns a logger tagged with the actor's name.
func (c *Context) Log() *zerolog.Logger { return &c.cell.log }

// Stop stops the actor once the current message has been processed.
// Remaining mailbox messages become dead letters.
func (c *Context) Stop() { c.cell.requestStop() }

// ScheduleOnce delivers msg to the actor's own mailbox after d. The timer is
// discarded on restart and stop; the returned func cancels it early.
func (c *Context) ScheduleOnce(d time.Duration, msg Message) (cancel func()) {
	return c.cell.scheduleOnce(d, msg)
}

// ScheduleEvery delivers msg to the actor's own mailbox every d until
// cancelled, restarted or stopped.
func (c *Context) ScheduleEvery(d time.Duration, msg Message) (cancel func()) {
	return c.cell.scheduleEvery(d, msg)
}

// Ref addresses an actor. The zero value is not usable; refs come from
// Spawn, Lookup, Sender or Ask replies.
type Ref struct {
	name   string
	system *System
	send   func(Envelope) bool
}

// Name returns the actor's registered name. Names are stable across
// restarts, which is what makes delivery destinations and deterministic saga
// addressing survive a crash.
func (r *Ref) Name() string { return r.name }

// Tell enqueues msg for the actor. Messages to stopped actors are logged as
// dead letters and dropped.
func (r *Ref) Tell(msg Message, sender *Ref) {
	if r == nil || r.send == nil || !r.send(Envelope{Msg: msg, Sender: sender}) {
		if r != nil && r.system != nil {
			r.system.deadLetter(r.name, msg)
		}
	}
}
