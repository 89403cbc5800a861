package store

import "errors"

var (
	// ErrMissingColumn is returned when a tab's header lacks a column the
	// operation needs to locate or write rows.
	ErrMissingColumn = errors.New("missing column")

	// ErrNoRows is returned when a tab holds nothing but its header.
	ErrNoRows = errors.New("no rows")

	ErrNotFound = errors.New("not found")
)
