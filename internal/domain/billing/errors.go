package billing

import "errors"

var (
	ErrNotFound             = errors.New("transaction not found")
	ErrInvalid              = errors.New("invalid transaction")
	ErrDuplicateTransaction = errors.New("duplicate transaction_id")
)
