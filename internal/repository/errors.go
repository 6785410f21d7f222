// Package repository implements persistence over database/sql plus in-memory
// variants used by tests and the dev server.
package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by compare-and-swap writes when the row's
	// version no longer matches the one the caller read.
	ErrConflict = errors.New("version conflict")
)
