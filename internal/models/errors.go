package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Storage and services wrap these with
// context; callers match them with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")

	// ErrDuplicate is a conflict caused by a record that already exists.
	ErrDuplicate = fmt.Errorf("%w: already exists", ErrConflict)

	// ErrNotPayable is a conflict caused by paying an installment that is
	// not pending or overdue.
	ErrNotPayable = fmt.Errorf("%w: installment is not payable", ErrConflict)

	// ErrInUse is a conflict caused by deleting a record that is still referenced.
	ErrInUse = fmt.Errorf("%w: still in use", ErrConflict)
)
