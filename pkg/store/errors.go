package store

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

var (
	// ErrNotFound reports that a referenced thread, item, attachment or task
	// does not exist. Callers that can proceed without the entity (idempotent
	// deletes, toggle of a vanished task) recover from it locally.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable reports that the store is not opened or the underlying
	// database failed. Fatal for the current operation; an operation either
	// fully commits or reports this before any dependent step runs.
	ErrUnavailable = errors.New("store unavailable")
)

// notOpened is the error returned by every operation before Open succeeded.
func notOpened() error {
	return ErrUnavailable
}

func mapGetErr(err error) error {
	if errors.Is(err, pebble.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
