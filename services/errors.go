package services

import "errors"

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrIllegalOperation = errors.New("operation is not allowed in the current phase")
	ErrConflict         = errors.New("resource already exists")

	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	ErrUploadFailed    = errors.New("failed to upload file")
	ErrStorageDisabled = errors.New("file storage is not configured")
)
