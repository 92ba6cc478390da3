package domain

import (
	"errors"
	"fmt"
)

// Input errors. All of them wrap ErrValidation.
var (
	ErrValidation       = errors.New("validation failed")
	ErrMissingFields    = fmt.Errorf("%w: email and password are required", ErrValidation)
	ErrPlatformRequired = fmt.Errorf("%w: platform is required", ErrValidation)
	ErrUsernameRequired = fmt.Errorf("%w: usernameOrEmail is required", ErrValidation)
	ErrWebsiteRequired  = fmt.Errorf("%w: websiteUrl is required", ErrValidation)
	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrValidation)
)

// Account errors.
var (
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("user not found")
)

// Token errors. All of them wrap ErrUnauthenticated.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrMissingToken     = fmt.Errorf("%w: no token provided", ErrUnauthenticated)
	ErrInvalidSignature = fmt.Errorf("%w: token is invalid", ErrUnauthenticated)
	ErrTokenExpired     = fmt.Errorf("%w: token is expired", ErrUnauthenticated)
)

// ErrNotFound is returned for a credential that does not exist and for one
// owned by somebody else. Callers cannot tell the two apart.
var ErrNotFound = errors.New("credential not found")

// Infrastructure errors.
var (
	ErrStorage = errors.New("storage failure")
	ErrCrypto  = errors.New("crypto failure")
)
