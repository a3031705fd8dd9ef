// Package draw runs draw transactions: debit the account, sample the pool,
// grant the reward and mark the transaction, all under the account's
// transaction lock.
package draw

import (
	"fmt"

	"github.com/xtding233/lootdraw/internal/account"
	"github.com/xtding233/lootdraw/internal/event"
	"github.com/xtding233/lootdraw/internal/gacha"
)

// Mode names how a draw was requested.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeTen    Mode = "ten"
)

// Draws is the number of rewards a mode grants.
func (m Mode) Draws() (int, error) {
	switch m {
	case ModeSingle:
		return 1, nil
	case ModeTen:
		return 10, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, string(m))
	}
}

// Reward is what one sample produced. Two rewards with the same ItemID are
// the same catalog item.
type Reward struct {
	ItemID      string     `json:"item_id"`
	Name        string     `json:"name"`
	Tier        gacha.Tier `json:"tier"`
	Description string     `json:"description,omitempty"`
	FirstTime   bool       `json:"first_time"`
	Salvage     int64      `json:"salvage,omitempty"`
}

// DrawOnce runs a single draw for cost. On success the account has recorded
// BalanceDebited, RewardGranted and DrawExecuted, in that order.
// An *AffordabilityError means nothing changed.
func DrawOnce(acct *account.Account, pool gacha.Sampler, cost int64, mode Mode) (Reward, error) {
	rewards, err := DrawMulti(acct, pool, cost, 1, mode)
	if err != nil {
		return Reward{}, err
	}
	return rewards[0], nil
}

// DrawMulti charges cost once and grants n rewards. Events are one
// BalanceDebited, n RewardGranted and one DrawExecuted.
func DrawMulti(acct *account.Account, pool gacha.Sampler, cost int64, n int, mode Mode) ([]Reward, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	release := acct.Begin()
	defer release()

	if err := checkAffordable(acct, cost); err != nil {
		return nil, err
	}

	// Sampling has no side effects, so entries are validated before the debit
	// and a bad sampler can't leave a half-applied draw.
	entries := make([]gacha.CatalogEntry, n)
	for i := range entries {
		e := pool.Sample()
		if e.ID == "" || !e.Tier.Valid() {
			return nil, fmt.Errorf("sampler returned %w: id=%q tier=%d", gacha.ErrInvalidEntry, e.ID, int(e.Tier))
		}
		entries[i] = e
	}

	if err := acct.Debit(cost, "draw"); err != nil {
		// unreachable while the transaction lock is held and balance was checked
		return nil, fmt.Errorf("debit: %w", err)
	}

	rewards := make([]Reward, 0, n)
	for _, e := range entries {
		res, err := acct.GrantItem(e.ID, e.Tier)
		if err != nil {
			return rewards, fmt.Errorf("grant %s: %w", e.ID, err)
		}
		rewards = append(rewards, Reward{
			ItemID:      e.ID,
			Name:        e.Name,
			Tier:        e.Tier,
			Description: e.Description,
			FirstTime:   res.FirstTime,
			Salvage:     res.Salvage,
		})
	}

	acct.RecordEvent(event.DrawExecuted{
		Account: acct.ID(),
		Cost:    cost,
		Mode:    string(mode),
		Count:   n,
	})
	return rewards, nil
}

func checkAffordable(acct *account.Account, cost int64) error {
	balance := acct.Balance()
	switch {
	case cost < 0:
		return &AffordabilityError{AccountID: acct.ID(), Balance: balance, Cost: cost, Err: account.ErrInvalidAmount}
	case balance < cost:
		return &AffordabilityError{AccountID: acct.ID(), Balance: balance, Cost: cost, Err: account.ErrInsufficientFunds}
	}
	return nil
}
