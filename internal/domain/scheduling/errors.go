package scheduling

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")
	ErrInvalid  = errors.New("invalid appointment")
)
