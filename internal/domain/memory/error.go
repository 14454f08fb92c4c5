package memory

import "errors"

var (
	ErrNotFound     = errors.New("memory entry not found")
	ErrInvalidInput = errors.New("invalid memory input")
	ErrIndex        = errors.New("vector index failure")
)
