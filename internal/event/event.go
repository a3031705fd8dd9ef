// Package event holds the domain event model and the in-process bus that
// fans events out to subscribers.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/lootdraw/internal/gacha"
)

// Kind tags the payload variant of an Event.
type Kind string

const (
	KindDrawExecuted   Kind = "draw.executed"
	KindBalanceDebited Kind = "balance.debited"
	KindRewardGranted  Kind = "reward.granted"
)

// Kinds lists every event kind.
func Kinds() []Kind {
	return []Kind{KindDrawExecuted, KindBalanceDebited, KindRewardGranted}
}

// Payload is the closed set of event variants. Only this package can add one.
type Payload interface {
	Kind() Kind
	AccountID() string
	sealed()
}

// DrawExecuted marks a whole draw transaction.
type DrawExecuted struct {
	Account string
	Cost    int64
	Mode    string
	Count   int // rewards granted by the transaction
}

// BalanceDebited is recorded for every successful debit.
type BalanceDebited struct {
	Account      string
	Amount       int64
	BalanceAfter int64
	Reason       string
}

// RewardGranted is recorded for every grant, first-time or duplicate.
// Salvage is the credit applied for a duplicate, 0 otherwise.
type RewardGranted struct {
	Account   string
	ItemID    string
	Tier      gacha.Tier
	FirstTime bool
	Salvage   int64
}

func (DrawExecuted) Kind() Kind   { return KindDrawExecuted }
func (BalanceDebited) Kind() Kind { return KindBalanceDebited }
func (RewardGranted) Kind() Kind  { return KindRewardGranted }

func (p DrawExecuted) AccountID() string   { return p.Account }
func (p BalanceDebited) AccountID() string { return p.Account }
func (p RewardGranted) AccountID() string  { return p.Account }

func (DrawExecuted) sealed()   {}
func (BalanceDebited) sealed() {}
func (RewardGranted) sealed()  {}

// Event is an immutable record of a state transition. ID and time are set
// once by New and have no setters. Payloads are plain values, so a copy of an
// Event shares nothing mutable with the entity that recorded it.
type Event struct {
	id         uuid.UUID
	occurredAt time.Time
	payload    Payload
}

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// New stamps a payload with a fresh id and the current time.
func New(p Payload) Event {
	return Event{id: uuid.New(), occurredAt: now(), payload: p}
}

func (e Event) ID() uuid.UUID         { return e.id }
func (e Event) OccurredAt() time.Time { return e.occurredAt }
func (e Event) Payload() Payload      { return e.payload }

func (e Event) Kind() Kind {
	if e.payload == nil {
		return ""
	}
	return e.payload.Kind()
}

func (e Event) AccountID() string {
	if e.payload == nil {
		return ""
	}
	return e.payload.AccountID()
}

func (e Event) String() string {
	switch p := e.payload.(type) {
	case DrawExecuted:
		return fmt.Sprintf("%s{account=%s cost=%d mode=%s count=%d}", p.Kind(), p.Account, p.Cost, p.Mode, p.Count)
	case BalanceDebited:
		return fmt.Sprintf("%s{account=%s amount=%d after=%d reason=%s}", p.Kind(), p.Account, p.Amount, p.BalanceAfter, p.Reason)
	case RewardGranted:
		return fmt.Sprintf("%s{account=%s item=%s tier=%s first=%t salvage=%d}", p.Kind(), p.Account, p.ItemID, p.Tier, p.FirstTime, p.Salvage)
	default:
		return "event{}"
	}
}
