package model

import (
	"errors"
	"fmt"

	"github.com/renderwell/farmpki/pkg/pkix"
)

// Base errors. Call sites wrap them with fmt.Errorf("context%w", Err) so the
// context text carries the message and errors.Is still matches the base.
var ErrInvalidParameter = errors.New("") // Base error for invalid user input.
var ErrDataNotFound = errors.New("")     // Base error for data not found.

var ErrStoreUnavailable = errors.New("") // Transient secret store failure. Retried with backoff.
var ErrAccessDenied = errors.New("")     // Secret store permission failure. Fatal, never retried.

var ErrSecretNotFound = fmt.Errorf("%w", ErrDataNotFound)

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsUserError reports whether the error was caused by the event's declared
// properties rather than by the subsystem itself.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, pkix.ErrInvalidSubject) ||
		errors.Is(err, pkix.ErrInvalidValidityPeriod)
}

// FailureReason renders an error as the Reason field of a FAILED response.
// User input errors are reported verbatim. Internal crypto and encoding
// failures get a generic message so no key material ever reaches the caller
// or its logs.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pkix.ErrCryptoFailure):
		return "internal cryptographic operation failed"
	case errors.Is(err, pkix.ErrEncodingFailure):
		return "internal encoding operation failed"
	case errors.Is(err, ErrStoreUnavailable):
		return fmt.Sprintf("secret store unavailable: %s", err.Error())
	case errors.Is(err, ErrAccessDenied):
		return fmt.Sprintf("secret store access denied: %s", err.Error())
	default:
		return err.Error()
	}
}
