package helix

import "helixprint/internal/services"

// Error markers callers classify with errors.Is.
var (
	ErrDisabled          = services.ErrDisabled
	ErrNotFound          = services.ErrNotFound
	ErrInvalidPath       = services.ErrInvalidPath
	ErrFilesystem        = services.ErrFilesystem
	ErrHostCommunication = services.ErrHostCommunication
	ErrHostUnavailable   = services.ErrHostUnavailable
)
