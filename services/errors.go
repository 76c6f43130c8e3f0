package services

import "errors"

// Sentinel errors shared by the services. Handlers map these onto HTTP
// status codes; everything else is treated as a server error.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrValidation         = errors.New("invalid input")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
