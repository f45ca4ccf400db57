// Package common defines sentinel errors shared across picdrop packages.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound = errors.New("not found")

	// Upload errors.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// Settings validation errors.
	ErrInvalidScheme = errors.New("invalid scheme")
	ErrInvalidCrop   = errors.New("invalid crop preset")

	// Section registry errors.
	ErrNoSection = errors.New("no such section")
)
