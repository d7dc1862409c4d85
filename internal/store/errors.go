package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means a referenced identifier is absent from the store.
	ErrNotFound = errors.New("not found")

	// ErrConstraint means an insert or delete violated a store constraint,
	// e.g. a duplicate tag name or deleting a tag still in use.
	ErrConstraint = errors.New("constraint violation")

	// ErrIntegrity means fewer related entities resolved than were
	// referenced. The ids named in event_ids/tag_ids are authoritative, so a
	// shortfall is a data-integrity fault, not a tolerable partial result.
	ErrIntegrity = errors.New("integrity violation")
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
