// Package sdkerr defines the error kinds shared by the device SDK packages.
//
// Every failure is returned to the immediate caller. Callers match kinds with
// errors.Is; a buffer that is too small carries the capacity it needs.
package sdkerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for nil or empty arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedAlgorithm is returned for any algorithm other than ES256.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrBufferTooSmall is matched by every *BufferTooSmallError.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrInvalidEncoding is returned for malformed base64url text.
	ErrInvalidEncoding = errors.New("invalid base64url encoding")
	// ErrMalformedToken is returned when a compact token does not have three segments.
	ErrMalformedToken = errors.New("malformed token")
	// ErrSigningFailed wraps engine-level signing errors such as a bad key.
	ErrSigningFailed = errors.New("signing failed")
	// ErrSignatureInvalid is returned when verification ran but did not succeed.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrEngineUnavailable is returned when the crypto engine failed to initialize.
	ErrEngineUnavailable = errors.New("crypto engine unavailable")
)

// BufferTooSmallError reports the exact capacity an output buffer needs.
type BufferTooSmallError struct {
	Required  int
	Available int
}

// NewBufferTooSmall returns a *BufferTooSmallError.
func NewBufferTooSmall(required, available int) error {
	return &BufferTooSmallError{Required: required, Available: available}
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("%s: need %d bytes, have %d", ErrBufferTooSmall, e.Required, e.Available)
}

// Is makes errors.Is(err, ErrBufferTooSmall) true.
func (e *BufferTooSmallError) Is(target error) bool {
	return target == ErrBufferTooSmall
}

// RequiredSize returns the capacity hint carried by err, if any.
func RequiredSize(err error) (int, bool) {
	var bts *BufferTooSmallError
	if errors.As(err, &bts) {
		return bts.Required, true
	}
	return 0, false
}
