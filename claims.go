package jwt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// NumericDate is a JSON numeric date value: seconds since the epoch.
// Fractional values, as emitted by some issuers, are truncated.
type NumericDate int64

// UnmarshalJSON accepts integer and floating point numbers.
func (d *NumericDate) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("numeric date: %w", err)
	}

	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*d = NumericDate(i)
		return nil
	}

	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("numeric date: invalid value %s", b)
	}

	*d = NumericDate(math.Trunc(f))
	return nil
}

// Time returns d as a time.Time, the zero Time when d is unset.
func (d NumericDate) Time() time.Time {
	if d == 0 {
		return time.Time{}
	}

	return time.Unix(int64(d), 0)
}

// NewNumericDate returns the NumericDate of t.
func NewNumericDate(t time.Time) NumericDate {
	return NumericDate(t.Unix())
}

// Audience is the "aud" claim. A token may carry it as a single string or
// as an array of strings; both decode to a slice.
type Audience []string

// UnmarshalJSON accepts a string or an array of strings.
func (aud *Audience) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		if single == "" {
			*aud = nil
		} else {
			*aud = Audience{single}
		}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(b, &multi); err != nil {
		return fmt.Errorf("audience: %w", err)
	}

	*aud = multi
	return nil
}

// Claims holds the registered JWT claims (RFC 7519 section 4.1).
type Claims struct {
	// The "nbf" claim. The token must not be accepted before this time,
	// give or take the verifier's clock skew.
	NotBefore NumericDate `json:"nbf,omitempty"`
	// The "iat" claim, the moment the token was minted.
	IssuedAt NumericDate `json:"iat,omitempty"`
	// The "exp" claim. Session tokens are short lived, usually a minute.
	Expiry NumericDate `json:"exp,omitempty"`
	// The "jti" claim.
	ID string `json:"jti,omitempty"`
	// The "iss" claim: the Frontend API URL of the instance that minted it.
	Issuer string `json:"iss,omitempty"`
	// The "sub" claim: the user ID.
	Subject string `json:"sub,omitempty"`
	// The "aud" claim, present on custom JWT templates only.
	Audience Audience `json:"aud,omitempty"`
}

// ExpiresAt returns the time the token expires.
func (c Claims) ExpiresAt() time.Time {
	return c.Expiry.Time()
}

// Timeleft returns the remaining lifetime of the token, negative when it
// has already expired.
func (c Claims) Timeleft() time.Duration {
	return c.ExpiresAt().Sub(Clock())
}

// ActClaim identifies the actor of an impersonated session.
type ActClaim struct {
	Subject string `json:"sub"`
	Issuer  string `json:"iss,omitempty"`
	SID     string `json:"sid,omitempty"`
}

// SessionClaims are the claims of a session token minted by the
// Frontend API. Custom JWT template claims can be read with
// DecodedToken.Unmarshal.
type SessionClaims struct {
	Claims

	SessionID       string `json:"sid,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
	// SessionStatus is "active" or "pending".
	SessionStatus string    `json:"sts,omitempty"`
	Actor         *ActClaim `json:"act,omitempty"`

	ActiveOrganizationID          string   `json:"org_id,omitempty"`
	ActiveOrganizationSlug        string   `json:"org_slug,omitempty"`
	ActiveOrganizationRole        string   `json:"org_role,omitempty"`
	ActiveOrganizationPermissions []string `json:"org_permissions,omitempty"`

	// FactorVerificationAge holds the minutes since the first and second
	// factor verifications, -1 when a factor was never verified.
	FactorVerificationAge []int `json:"fva,omitempty"`
}

// HasPermission reports whether the active organization role grants
// permission, e.g. "org:invoices:read".
func (c *SessionClaims) HasPermission(permission string) bool {
	for _, p := range c.ActiveOrganizationPermissions {
		if p == permission {
			return true
		}
	}

	return false
}

// HasRole reports whether role is the active organization role.
func (c *SessionClaims) HasRole(role string) bool {
	return c.ActiveOrganizationRole != "" && c.ActiveOrganizationRole == role
}

// IsImpersonated reports whether an actor is acting on behalf of the
// subject.
func (c *SessionClaims) IsImpersonated() bool {
	return c.Actor != nil && c.Actor.Subject != ""
}
