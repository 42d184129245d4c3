package domain

import "errors"

// Sentinel errors shared across packages. Check with errors.Is.
var (
	ErrNotFound         = errors.New("flashdeck: not found")
	ErrInvalidFlipMode  = errors.New("flashdeck: invalid flip mode")
	ErrWeightOutOfRange = errors.New("flashdeck: revision weight out of range")
	ErrWeightContention = errors.New("flashdeck: revision weight changed concurrently")
)
