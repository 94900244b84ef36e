package domain

import "errors"

// Sentinel errors for the application. Handlers map these to HTTP status
// codes with errors.Is; messages stay human-readable for direct display.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden")
	ErrPrecondition       = errors.New("precondition failed")
	ErrValidation         = errors.New("invalid input")
	ErrInternal           = errors.New("internal server error")
	ErrDatabaseConnection = errors.New("database connection error")
)
