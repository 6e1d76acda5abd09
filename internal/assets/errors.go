package assets

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrStyleNotFound indicates the requested style does not exist.
	ErrStyleNotFound = errors.New("style not found")

	// ErrThemeNotFound indicates the requested theme does not exist.
	ErrThemeNotFound = errors.New("theme not found")

	// ErrInvalidBasePath indicates the configured overlay path is not a valid directory.
	ErrInvalidBasePath = errors.New("invalid base path")
)
