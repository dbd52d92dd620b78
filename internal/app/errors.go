package app

import "errors"

var (
	// ErrUsernameTaken is returned when a registration reuses a username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrUsernameAndPasswordRequired = errors.New("username and password required")

	// ErrCompletionFailed wraps completion-service failures so handlers can
	// map them to an upstream error status.
	ErrCompletionFailed = errors.New("completion service failed")
)
