package source

import "errors"

var (
	// ErrEmptySelection means there was nothing to search for. Callers stay silent.
	ErrEmptySelection = errors.New("empty selection")

	// ErrUnrecognizedSource means no source matched a terminal provider,
	// including the case of an empty source list.
	ErrUnrecognizedSource = errors.New("unrecognized source url")
)
