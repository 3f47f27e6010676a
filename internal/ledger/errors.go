package ledger

import "errors"

var (
	// ErrNotFound is returned when a record, plan, or task does not exist.
	ErrNotFound = errors.New("ledger: not found")

	// ErrAlreadyExists is returned when an insert collides with an existing
	// row, such as a duplicate plan ID or a second record for a user.
	ErrAlreadyExists = errors.New("ledger: already exists")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("ledger: store is closed")
)
