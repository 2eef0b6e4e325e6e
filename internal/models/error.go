package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrRateLimited  = errors.New("too many requests")

	// ErrDataAccess marks failures of the persistence layer. The error screen
	// reports these with a dedicated message code.
	ErrDataAccess = errors.New("data access failure")

	// Account state errors
	ErrAccountLocked  = errors.New("account is locked")
	ErrAccountDeleted = errors.New("account is deleted")
)
