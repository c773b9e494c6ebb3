package actor

import "sync"

// mailbox is an unbounded FIFO queue. Senders never block; the owner drains
// it one envelope at a time, which is what gives per-entity sequential
// processing.
type mailbox struct {
	mu     sync.Mutex
	queue  []Envelope
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// push enqueues an envelope. It reports false once the mailbox is closed.
func (m *mailbox) push(e Envelope) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, e)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// next blocks until an envelope is available or done is closed.
func (m *mailbox) next(done <-chan struct{}) (Envelope, bool) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			e := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return e, true
		}
		m.mu.Unlock()

		select {
		case <-m.notify:
		case <-done:
			return Envelope{}, false
		}
	}
}

// close marks the mailbox dead; subsequent pushes are rejected.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.queue = nil
	m.mu.Unlock()
}
