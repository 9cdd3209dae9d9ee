package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist or is
	// outside the caller's workspace; the two cases are indistinguishable so
	// cross-workspace existence never leaks.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a record fails a storage-level
	// check constraint or is missing required fields.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a write references a missing row.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrOverlap is returned when the store's overlap exclusion rejects a
	// scheduling commit. It is the storage layer's last line of defence
	// against concurrent double-booking and callers must treat it exactly
	// like a detected time conflict.
	ErrOverlap = errors.New("persistence: overlapping interval")
	// ErrUnavailable is returned when the durable store cannot be reached.
	ErrUnavailable = errors.New("persistence: store unavailable")
)
