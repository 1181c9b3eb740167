package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any NotFoundError.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidInput marks query parameters or bodies the store cannot accept.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError reports a write against an id that does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Product with id %s was not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
