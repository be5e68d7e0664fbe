package models

import (
	"errors"
)

var (
	// ErrValidation marks rejected input. The API layer maps it to a
	// 400 response.
	ErrValidation = errors.New("validation error")

	// ErrNotEmbedded is returned when an operation needs a link's
	// embedding before one has been generated.
	ErrNotEmbedded = errors.New("link has not been embedded")
)
