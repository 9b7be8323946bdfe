package jwt

import (
	"fmt"
	"slices"
)

// IssuerValidator decides whether an "iss" claim is acceptable.
// It is called with the empty string when the token has no issuer.
type IssuerValidator func(iss string) bool

// IssuerIs accepts tokens issued by want. Tokens without an "iss" claim
// are accepted too, as the Frontend API omits it on some legacy tokens.
func IssuerIs(want string) IssuerValidator {
	return func(iss string) bool {
		return iss == "" || iss == want
	}
}

// IssuerIn accepts tokens issued by any of the given issuers, and tokens
// without an "iss" claim.
func IssuerIn(issuers ...string) IssuerValidator {
	return func(iss string) bool {
		return iss == "" || slices.Contains(issuers, iss)
	}
}

func checkSubject(c *SessionClaims) error {
	if c.Subject == "" {
		return ErrMissingSubject
	}

	return nil
}

// checkAudience passes when either side is empty, otherwise the token's
// audience must share at least one value with the accepted one.
func checkAudience(c *SessionClaims, accepted []string) error {
	if len(accepted) == 0 || len(c.Audience) == 0 {
		return nil
	}

	for _, aud := range c.Audience {
		if slices.Contains(accepted, aud) {
			return nil
		}
	}

	return fmt.Errorf("%w: %q is not one of %q", ErrInvalidAudience, []string(c.Audience), accepted)
}

// checkAuthorizedParty passes when no parties are configured or the token
// has no "azp" claim; a present claim must be one of the parties.
func checkAuthorizedParty(c *SessionClaims, parties []string) error {
	if len(parties) == 0 || c.AuthorizedParty == "" {
		return nil
	}

	if !slices.Contains(parties, c.AuthorizedParty) {
		return fmt.Errorf("%w: %q is not one of %q", ErrInvalidAuthorizedParty, c.AuthorizedParty, parties)
	}

	return nil
}

func checkIssuer(c *SessionClaims, issuer IssuerValidator) error {
	if issuer == nil {
		return nil
	}

	if !issuer(c.Issuer) {
		return fmt.Errorf("%w: %q", ErrInvalidIssuer, c.Issuer)
	}

	return nil
}
