package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnsupportedJob      = errors.New("unsupported job type")
	ErrProviderFailure     = errors.New("provider failure")
)
