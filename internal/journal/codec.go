package journal

import (
	"encoding/json"
	"fmt"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// envelope is the wire form of a journaled event: a type tag plus the event
// body.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var decoders = map[string]func(json.RawMessage) (domain.Event, error){
	domain.DepositedEvent{}.EventType(): decodeInto[domain.DepositedEvent],
	domain.WithdrawnEvent{}.EventType(): decodeInto[domain.WithdrawnEvent],
	domain.RejectedEvent{}.EventType():  decodeInto[domain.RejectedEvent],
	domain.TransferEvent{}.EventType():  decodeInto[domain.TransferEvent],
}

func decodeInto[E domain.Event](data json.RawMessage) (domain.Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// MarshalEvent encodes an event as a tagged JSON envelope.
func MarshalEvent(event domain.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", event.EventType(), err)
	}
	return json.Marshal(envelope{Type: event.EventType(), Data: data})
}

// UnmarshalEvent decodes a tagged JSON envelope back into its event type.
func UnmarshalEvent(raw []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode event envelope: %w", err)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	return decode(env.Data)
}
