package sqlstore

import (
	"errors"
	"fmt"
)

// ErrStorageFailure is wrapped by every error the store returns: the table
// could not be read or written (I/O error, full disk, corruption, constraint).
var ErrStorageFailure = errors.New("storage failure")

func failure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
