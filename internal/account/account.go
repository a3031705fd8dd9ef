// Package account implements the player account aggregate: balance, owned
// items and the queue of events its mutations produce.
package account

import (
	"fmt"
	"slices"
	"sync"

	"github.com/xtding233/lootdraw/internal/event"
	"github.com/xtding233/lootdraw/internal/gacha"
)

// GrantResult is the outcome of GrantItem.
type GrantResult struct {
	FirstTime bool
	Salvage   int64 // credited for a duplicate, 0 on a first grant
}

// Account is the aggregate root. All state changes go through its methods,
// each of which appends the events it produces to the pending queue.
type Account struct {
	id   string
	name string

	tx       sync.Mutex // serializes multi-step transactions, see Begin
	delivery sync.Mutex // one event batch in flight, see BeginDelivery

	mu      sync.Mutex
	balance int64
	owned   map[string]struct{}
	pending []event.Event
}

// New creates an account. id and name must be non-empty and balance >= 0.
func New(id, name string, balance int64) (*Account, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	if balance < 0 {
		return nil, fmt.Errorf("initial balance %d: %w", balance, ErrInvalidAmount)
	}
	return &Account{
		id:      id,
		name:    name,
		balance: balance,
		owned:   make(map[string]struct{}),
	}, nil
}

func (a *Account) ID() string       { return a.id }
func (a *Account) Name() string     { return a.name }
func (a *Account) EntityID() string { return a.id }

// Begin takes the account's transaction lock and returns the release func.
// Callers running several mutations as one unit hold it for the whole unit.
func (a *Account) Begin() (release func()) {
	a.tx.Lock()
	return a.tx.Unlock
}

// BeginDelivery takes the account's delivery lock. It is independent of the
// transaction lock, so draws keep recording while a batch is delivered.
func (a *Account) BeginDelivery() (release func()) {
	a.delivery.Lock()
	return a.delivery.Unlock
}

func (a *Account) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Debit removes amount from the balance and records BalanceDebited.
func (a *Account) Debit(amount int64, reason string) error {
	if amount < 0 {
		return fmt.Errorf("debit %d: %w", amount, ErrInvalidAmount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount > a.balance {
		return fmt.Errorf("debit %d with balance %d: %w", amount, a.balance, ErrInsufficientFunds)
	}
	a.balance -= amount
	a.record(event.BalanceDebited{
		Account:      a.id,
		Amount:       amount,
		BalanceAfter: a.balance,
		Reason:       reason,
	})
	return nil
}

// Credit adds amount to the balance. No event is recorded.
func (a *Account) Credit(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d: %w", amount, ErrInvalidAmount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += amount
	return nil
}

// GrantItem adds itemID to the owned set. A repeat grant is a duplicate: the
// set is unchanged and the tier's salvage value is credited instead. Either
// way a RewardGranted event is recorded.
func (a *Account) GrantItem(itemID string, tier gacha.Tier) (GrantResult, error) {
	if itemID == "" {
		return GrantResult{}, ErrInvalidItem
	}
	if !tier.Valid() {
		return GrantResult{}, fmt.Errorf("grant %s: %w", itemID, gacha.ErrUnknownTier)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	res := GrantResult{FirstTime: true}
	if _, dup := a.owned[itemID]; dup {
		res = GrantResult{FirstTime: false, Salvage: tier.SalvageValue()}
		a.balance += res.Salvage
	} else {
		a.owned[itemID] = struct{}{}
	}
	a.record(event.RewardGranted{
		Account:   a.id,
		ItemID:    itemID,
		Tier:      tier,
		FirstTime: res.FirstTime,
		Salvage:   res.Salvage,
	})
	return res, nil
}

func (a *Account) Owns(itemID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.owned[itemID]
	return ok
}

func (a *Account) OwnedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.owned)
}

// OwnedItems returns the owned item ids, sorted.
func (a *Account) OwnedItems() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.owned))
	for id := range a.owned {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// RecordEvent stamps p and appends it to the pending queue.
func (a *Account) RecordEvent(p event.Payload) event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record(p)
}

// record expects a.mu held.
func (a *Account) record(p event.Payload) event.Event {
	e := event.New(p)
	a.pending = append(a.pending, e)
	return e
}

// PendingEvents returns a copy of the queue without draining it.
func (a *Account) PendingEvents() []event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.pending)
}

// DrainEvents hands over the queue and starts a fresh one. Events recorded
// after the swap go to the next drain.
func (a *Account) DrainEvents() []event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.pending
	a.pending = nil
	return out
}

// Requeue puts undelivered events back in front of anything recorded since
// they were drained.
func (a *Account) Requeue(events []event.Event) {
	if len(events) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(slices.Clone(events), a.pending...)
}
