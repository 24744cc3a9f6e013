package services

import "errors"

var (
	// ErrValidation marks input that is missing or outside its allowed values.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned by Login when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredToken is returned when a reset code is unknown,
	// already redeemed or past its expiry.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrInvalidImage is returned for uploads that are not JPEG/PNG or too large.
	ErrInvalidImage = errors.New("invalid image")
)
