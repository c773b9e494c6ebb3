// Package delivery implements the at-least-once channel used for every
// outbound command: messages are tagged with a monotonic delivery id and
// resent on a fixed interval until confirmed.
package delivery

import (
	"sort"
	"time"

	"github.com/kiamesdavies/money-transfer/internal/actor"
)

// Tick is the self-message owners schedule at the redeliver interval; on
// receipt they call Redeliver.
type Tick struct{}

// UnconfirmedWarning is returned to the owner once deliveries have gone
// unconfirmed past the attempt threshold, so the owner can apply its
// escalation policy (fail, compensate, retry differently).
type UnconfirmedWarning struct {
	PendingDeliveryIDs []int64
}

// Pending is one in-flight delivery.
type Pending struct {
	DeliveryID  int64
	Destination string
	Message     actor.Message
	Attempts    int
}

// Manager owns the pending-delivery table for a single actor. It is not
// safe for concurrent use; the owning actor's sequential mailbox is the
// synchronization.
type Manager struct {
	interval  time.Duration
	warnAfter int
	nextID    int64
	pending   map[int64]*Pending
}

// NewManager creates a Manager that redelivers every interval and warns
// after warnAfter unconfirmed attempts.
func NewManager(interval time.Duration, warnAfter int) *Manager {
	return &Manager{
		interval:  interval,
		warnAfter: warnAfter,
		pending:   make(map[int64]*Pending),
	}
}

// Interval returns the redelivery interval.
func (m *Manager) Interval() time.Duration { return m.interval }

// WarnAfter returns the unconfirmed-attempt threshold.
func (m *Manager) WarnAfter() int { return m.warnAfter }

// Deliver sends the message produced by factory to destination and tracks
// it until confirmed. The factory receives the assigned delivery id so the
// receiver can echo it back in its acknowledgement.
func (m *Manager) Deliver(c *actor.Context, destination string, factory func(deliveryID int64) actor.Message) {
	m.nextID++
	id := m.nextID
	msg := factory(id)
	m.pending[id] = &Pending{
		DeliveryID:  id,
		Destination: destination,
		Message:     msg,
		Attempts:    1,
	}
	c.System().Tell(destination, msg, c.Self())
}

// Confirm marks a delivery as done. Confirming an unknown or
// already-confirmed id is a no-op, which is what makes duplicate
// acknowledgements safe.
func (m *Manager) Confirm(deliveryID int64) {
	delete(m.pending, deliveryID)
}

// ConfirmAll drops every pending delivery. Owners call it when they abandon
// a stage wholesale, e.g. before compensating.
func (m *Manager) ConfirmAll() {
	m.pending = make(map[int64]*Pending)
}

// HasPending reports whether any delivery is still unconfirmed.
func (m *Manager) HasPending() bool { return len(m.pending) > 0 }

// Snapshot returns the unconfirmed deliveries ordered by delivery id, for
// owners that persist their delivery table alongside their own state.
func (m *Manager) Snapshot() []Pending {
	if len(m.pending) == 0 {
		return nil
	}
	out := make([]Pending, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveryID < out[j].DeliveryID })
	return out
}

// Restore replaces the pending table with a previously taken Snapshot and
// advances the id counter past the highest restored id, so new deliveries
// never reuse one.
func (m *Manager) Restore(pending []Pending) {
	m.pending = make(map[int64]*Pending, len(pending))
	for i := range pending {
		p := pending[i]
		m.pending[p.DeliveryID] = &p
		if p.DeliveryID > m.nextID {
			m.nextID = p.DeliveryID
		}
	}
}

// Redeliver resends every unconfirmed message and bumps its attempt count.
// Once any delivery reaches the warn threshold it returns an
// UnconfirmedWarning naming all of them; otherwise nil.
func (m *Manager) Redeliver(c *actor.Context) *UnconfirmedWarning {
	var exhausted []int64
	for _, p := range m.pending {
		if p.Attempts >= m.warnAfter {
			exhausted = append(exhausted, p.DeliveryID)
			continue
		}
		p.Attempts++
		c.System().Tell(p.Destination, p.Message, c.Self())
	}

	if len(exhausted) == 0 {
		return nil
	}
	sort.Slice(exhausted, func(i, j int) bool { return exhausted[i] < exhausted[j] })
	return &UnconfirmedWarning{PendingDeliveryIDs: exhausted}
}
