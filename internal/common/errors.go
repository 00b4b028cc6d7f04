// Package common defines shared constants and sentinel errors used across
// client and server layers of EventCall. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrNetwork     = errors.New("network failure")
	ErrRateLimited = errors.New("rate limited")

	// GitHub API errors mapped from HTTP status codes.
	ErrUnauthorized = errors.New("token invalid or expired")
	ErrPermission   = errors.New("insufficient permission")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("content sha conflict")

	// Validation / flow-control errors.
	ErrValidation        = errors.New("validation error")
	ErrTimeout           = errors.New("polling timeout")
	ErrMalformedResponse = errors.New("malformed response payload")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Account errors (proxy fast path).
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
