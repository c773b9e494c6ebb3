package ledger

import (
	"github.com/kiamesdavies/money-transfer/internal/actor"
)

// Unresponsive is an account that swallows every message without ever
// acknowledging. It simulates a dead destination so redelivery exhaustion
// and the rollback path can be exercised end to end.
type Unresponsive struct{}

// NewUnresponsive returns a factory for an unresponsive account.
func NewUnresponsive() func() actor.Actor {
	return func() actor.Actor { return &Unresponsive{} }
}

func (u *Unresponsive) Receive(c *actor.Context, msg actor.Message) {
	c.Log().Debug().Type("msg", msg).Msg("swallowed")
}
