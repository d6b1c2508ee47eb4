package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrResourceNotFound = errors.New("resource not found")

	ErrLockTimeout = errors.New("timed out waiting for resource exclusivity")

	ErrWriteConflict = errors.New("reservation write conflicted with a concurrent commit")
)
