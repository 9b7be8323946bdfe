package jwt

import (
	"time"
)

// Clock is used to validate the time based claims ("exp", "nbf", "iat"),
// to age the JWKS cache and to time the retry backoff.
// It can be overridden to use any other time value, useful for testing.
//
// Usage: now := Clock()
var Clock = time.Now

// DefaultClockSkew is the tolerance applied to the time based claims
// when VerifyOptions.ClockSkew is zero.
const DefaultClockSkew = 5 * time.Second
