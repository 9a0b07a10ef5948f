package token

import "errors"

var (
	// ErrWeakSigningKey is fatal at startup; a process with a missing or
	// short secret must not serve requests.
	ErrWeakSigningKey = errors.New("signing secret missing or below minimum length")

	ErrInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidIssuer    = errors.New("token issuer mismatch")
	ErrInvalidAudience  = errors.New("token audience mismatch")
	ErrTokenMalformed   = errors.New("token malformed")
)
