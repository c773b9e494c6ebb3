package directory

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kiamesdavies/money-transfer/internal/actor"
	"github.com/kiamesdavies/money-transfer/internal/domain"
)

func newDirectory(t *testing.T, entries map[string]string) (*actor.System, *actor.Ref) {
	t.Helper()
	system := actor.NewSystem("directory-test", zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		system.Shutdown(ctx)
	})

	ref, err := system.Spawn(Address, New(entries))
	if err != nil {
		t.Fatalf("spawn directory: %v", err)
	}
	return system, ref
}

func ask(t *testing.T, system *actor.System, ref *actor.Ref, msg actor.Message) actor.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := system.Ask(ctx, ref, msg)
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	return reply
}

func TestResolveOne(t *testing.T) {
	system, ref := newDirectory(t, map[string]string{"1": "account-1"})

	reply := ask(t, system, ref, domain.ResolveOne{DeliveryID: 7, AccountID: "1"})
	found, ok := reply.(domain.Found)
	if !ok {
		t.Fatalf("expected Found, got %T", reply)
	}
	if found.DeliveryID != 7 || found.Address != "account-1" {
		t.Fatalf("unexpected reply %+v", found)
	}
}

func TestResolveOneUnknownAccount(t *testing.T) {
	system, ref := newDirectory(t, map[string]string{"1": "account-1"})

	reply := ask(t, system, ref, domain.ResolveOne{DeliveryID: 7, AccountID: "99"})
	notFound, ok := reply.(domain.NotFound)
	if !ok {
		t.Fatalf("expected NotFound, got %T", reply)
	}
	if notFound.AccountID != "99" || notFound.DeliveryID != 7 {
		t.Fatalf("unexpected reply %+v", notFound)
	}
}

func TestResolveManyAllPresent(t *testing.T) {
	system, ref := newDirectory(t, map[string]string{
		"1": "account-1",
		"2": "account-2",
	})

	reply := ask(t, system, ref, domain.ResolveMany{DeliveryID: 3, AccountIDs: []string{"1", "2"}})
	foundAll, ok := reply.(domain.FoundAll)
	if !ok {
		t.Fatalf("expected FoundAll, got %T", reply)
	}
	if foundAll.Addresses["1"] != "account-1" || foundAll.Addresses["2"] != "account-2" {
		t.Fatalf("unexpected addresses %+v", foundAll.Addresses)
	}
}

func TestResolveManyIsAllOrNothing(t *testing.T) {
	system, ref := newDirectory(t, map[string]string{"1": "account-1"})

	reply := ask(t, system, ref, domain.ResolveMany{DeliveryID: 3, AccountIDs: []string{"1", "99", "98"}})
	notFound, ok := reply.(domain.NotFound)
	if !ok {
		t.Fatalf("expected NotFound, got %T", reply)
	}
	// First missing id in request order.
	if notFound.AccountID != "99" {
		t.Fatalf("expected first missing id 99, got %s", notFound.AccountID)
	}
}
