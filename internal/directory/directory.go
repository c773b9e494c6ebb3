// Package directory implements the account directory: it resolves account
// ids to ledger actor addresses, singly or in batch.
package directory

import (
	"github.com/kiamesdavies/money-transfer/internal/actor"
	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// Address is the directory actor's registered name.
const Address = "bank"

// Directory maps account ids to ledger addresses. Entries are static for
// the lifetime of the process; accounts are not created dynamically.
type Directory struct {
	entries map[string]string
}

// New returns a factory for the directory actor over the given
// accountID -> address entries.
func New(entries map[string]string) func() actor.Actor {
	return func() actor.Actor {
		return &Directory{entries: entries}
	}
}

// PreStart logs the directory size.
func (d *Directory) PreStart(c *actor.Context) error {
	c.Log().Info().Int("accounts", len(d.entries)).Msg("starting bank directory")
	return nil
}

func (d *Directory) Receive(c *actor.Context, msg actor.Message) {
	switch m := msg.(type) {
	case domain.ResolveOne:
		address, ok := d.entries[m.AccountID]
		if !ok {
			c.Sender().Tell(domain.NotFound{DeliveryID: m.DeliveryID, AccountID: m.AccountID}, c.Self())
			return
		}
		c.Sender().Tell(domain.Found{DeliveryID: m.DeliveryID, AccountID: m.AccountID, Address: address}, c.Self())

	case domain.ResolveMany:
		// All-or-nothing: one absent id fails the whole call, naming the
		// first missing id in request order.
		addresses := make(map[string]string, len(m.AccountIDs))
		for _, id := range m.AccountIDs {
			address, ok := d.entries[id]
			if !ok {
				c.Sender().Tell(domain.NotFound{DeliveryID: m.DeliveryID, AccountID: id}, c.Self())
				return
			}
			addresses[id] = address
		}
		c.Sender().Tell(domain.FoundAll{DeliveryID: m.DeliveryID, Addresses: addresses}, c.Self())

	default:
		c.Log().Error().Type("msg", msg).Msg("unattended message")
	}
}
