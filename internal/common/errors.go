// Package common defines shared constants and sentinel errors used across
// repositories, services and the HTTP layer. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// ErrorValidation is the root of every *ValidationError.
	ErrorValidation = errors.New("validation error")

	// ErrorAuthentication means the supplied credentials were rejected.
	ErrorAuthentication = errors.New("unable to authenticate with provided credentials")

	// ErrorUnauthenticated means a protected call arrived without a usable token.
	ErrorUnauthenticated = errors.New("authentication credentials were not provided or are invalid")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
