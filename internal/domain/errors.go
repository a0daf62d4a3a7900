package domain

import "errors"

var (
	// ErrDataLoad signals that the catalog source is missing or malformed.
	// Fatal at startup: no partial catalog is ever served.
	ErrDataLoad = errors.New("catalog data load failed")
	// ErrWorkNotFound signals a lookup for an id absent from the catalog.
	ErrWorkNotFound = errors.New("work not found")
	// ErrPersistence signals a user-state store read/write failure.
	// Recovered by falling back to empty in-memory defaults.
	ErrPersistence = errors.New("persistence failure")
)
