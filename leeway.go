package jwt

import (
	"errors"
	"fmt"
	"time"
)

var errMissingExpiry = errors.New("jwt: missing expiry claim")

// checkTimes validates the time claims at now, tolerating skew in the
// caller's favour on every bound:
//
//   - "exp" is required and must be later than now-skew,
//   - "nbf", when present, must not be later than now+skew,
//   - "iat", when present, must not be later than now+skew.
//
// Times are compared at second resolution, as they are encoded.
func checkTimes(c Claims, now time.Time, skew time.Duration) error {
	if c.Expiry == 0 {
		return errMissingExpiry
	}

	if exp := c.Expiry.Time(); !exp.After(now.Add(-skew)) {
		return fmt.Errorf("%w: expired at %s, now %s, clock skew %s",
			ErrExpired, exp.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), skew)
	}

	if c.NotBefore != 0 {
		if nbf := c.NotBefore.Time(); nbf.After(now.Add(skew)) {
			return fmt.Errorf("%w: not before %s, now %s, clock skew %s",
				ErrNotValidYet, nbf.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), skew)
		}
	}

	if c.IssuedAt != 0 {
		if iat := c.IssuedAt.Time(); iat.After(now.Add(skew)) {
			return fmt.Errorf("%w: issued at %s, now %s, clock skew %s",
				ErrIssuedInTheFuture, iat.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), skew)
		}
	}

	return nil
}
