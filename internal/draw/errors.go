package draw

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMode  = errors.New("unknown draw mode")
	ErrInvalidCount = errors.New("draw count must be >= 1")
	ErrNoCatalog    = errors.New("no catalog loaded")
)

// AffordabilityError rejects a draw before anything is mutated. Err is
// account.ErrInsufficientFunds or account.ErrInvalidAmount.
type AffordabilityError struct {
	AccountID string
	Balance   int64
	Cost      int64
	Err       error
}

func (e *AffordabilityError) Error() string {
	return fmt.Sprintf("account %s cannot afford draw: cost %d, balance %d: %v", e.AccountID, e.Cost, e.Balance, e.Err)
}

func (e *AffordabilityError) Unwrap() error { return e.Err }
