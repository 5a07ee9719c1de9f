package pkix

import "errors"

// Base errors of the crypto primitive layer. Call sites wrap them with
// fmt.Errorf("context%w", Err) so the context text carries the message and
// errors.Is still matches the base.
var ErrInvalidSubject = errors.New("")        // Bad common name. User input, not retryable.
var ErrInvalidValidityPeriod = errors.New("") // Validity out of range. User input, not retryable.
var ErrCryptoFailure = errors.New("")         // Key generation or signing failed. Internal, not retryable.
var ErrEncodingFailure = errors.New("")       // Certificate or key encoding failed. Internal, not retryable.
