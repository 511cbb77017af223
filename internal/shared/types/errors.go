package types

import "errors"

var (
	ErrAppNotFound     = errors.New("not found in registry")
	ErrWindowNotFound  = errors.New("window not found")
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidBounds   = errors.New("invalid bounds")
)
