package account

import "errors"

var (
	ErrInvalidID         = errors.New("account id must not be empty")
	ErrInvalidName       = errors.New("account name must not be empty")
	ErrInvalidAmount     = errors.New("amount must be >= 0")
	ErrInvalidItem       = errors.New("item id must not be empty")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
