package domain

import "errors"

var (
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrTransport      = errors.New("transport failure")
	ErrTimedOut       = errors.New("command timed out")
	ErrBackpressure   = errors.New("command queue full")
	ErrNotConfigured  = errors.New("source not configured")
	ErrRateLimited    = errors.New("source rate limited")
	ErrNotFound       = errors.New("not found")
	ErrSecretNotFound = errors.New("secret not found")
)
