package jwt

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sign signs claims with key and returns a compact token whose header
// carries alg, "typ":"JWT" and, when kid is not empty, the key ID.
//
// Session tokens are minted by the Frontend API; Sign exists to build
// fixtures for tests and to mint tokens from tooling. The payload is not
// encrypted, it must not contain private information.
//
// Example Code:
//
//	token, err := jwt.Sign(jwt.RS256, privateKey, "ins_1", jwt.SessionClaims{
//	    Claims:    jwt.Claims{Subject: "user_1"},
//	    SessionID: "sess_1",
//	}, jwt.MaxAge(time.Minute))
func Sign(alg Alg, key PrivateKey, kid string, claims any, opts ...SignOption) (string, error) {
	if alg == nil || parseAlg(alg.Name()) == nil {
		return "", ErrUnsupportedAlgorithm
	}

	if len(opts) > 0 {
		var standardClaims Claims
		for _, opt := range opts {
			opt(&standardClaims)
		}

		merged, err := mergeClaims(claims, standardClaims)
		if err != nil {
			return "", err
		}
		claims = merged
	}

	return encodeToken(alg, key, Header{Alg: alg.Name(), Typ: "JWT", Kid: kid}, claims)
}

// SignOption sets registered claims at Sign time. The values it sets win
// over the ones of the claims argument.
type SignOption func(c *Claims)

// WithClaims is a SignOption that sets every non-zero field of
// standardClaims.
func WithClaims(standardClaims Claims) SignOption {
	return func(c *Claims) {
		if v := standardClaims.NotBefore; v > 0 {
			c.NotBefore = v
		}

		if v := standardClaims.IssuedAt; v > 0 {
			c.IssuedAt = v
		}

		if v := standardClaims.Expiry; v > 0 {
			c.Expiry = v
		}

		if v := standardClaims.ID; v != "" {
			c.ID = v
		}

		if v := standardClaims.Issuer; v != "" {
			c.Issuer = v
		}

		if v := standardClaims.Subject; v != "" {
			c.Subject = v
		}

		if v := standardClaims.Audience; len(v) > 0 {
			c.Audience = v
		}
	}
}

// MaxAge is a SignOption to set the "exp" and "iat" claims at once,
// relative to Clock.
func MaxAge(maxAge time.Duration) SignOption {
	return func(c *Claims) {
		now := Clock()
		c.Expiry = NewNumericDate(now.Add(maxAge))
		c.IssuedAt = NewNumericDate(now)
	}
}

// mergeClaims overlays the non-zero registered claims of extra on the JSON
// object claims marshals to.
func mergeClaims(claims any, extra Claims) (map[string]json.RawMessage, error) {
	merged := make(map[string]json.RawMessage)

	if claims != nil {
		b, err := json.Marshal(claims)
		if err != nil {
			return nil, fmt.Errorf("merge claims: %w", err)
		}

		if err = json.Unmarshal(b, &merged); err != nil {
			return nil, fmt.Errorf("merge claims: claims must marshal to a JSON object: %w", err)
		}

		if merged == nil { // claims marshaled to null.
			merged = make(map[string]json.RawMessage)
		}
	}

	b, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("merge claims: %w", err)
	}

	var overlay map[string]json.RawMessage
	if err = json.Unmarshal(b, &overlay); err != nil {
		return nil, fmt.Errorf("merge claims: %w", err)
	}

	for k, v := range overlay {
		merged[k] = v
	}

	return merged, nil
}
