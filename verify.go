package jwt

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// VerifyOptions configures token verification.
// Only Key is required.
type VerifyOptions struct {
	// Key resolves the verification key from the token's "kid" header:
	// a single *JWK (see LocalKey), a *JWKS, Keys or a *JWKSClient.
	Key KeyResolver

	// ClockSkew is the tolerance applied to "exp", "nbf" and "iat".
	// Zero selects DefaultClockSkew, a negative value disables it.
	ClockSkew time.Duration

	// AuthorizedParties lists the origins a token may be presented from,
	// e.g. "https://example.com". A token whose "azp" claim is present and
	// not listed is rejected. Empty disables the check.
	AuthorizedParties []string

	// Audience lists the accepted "aud" values. When both this list and
	// the token's claim are non-empty they must share a value.
	Audience []string

	// Issuer validates the "iss" claim. Nil disables the check.
	Issuer IssuerValidator

	// Algorithms lists the accepted "alg" header values.
	// Empty selects RS256, the algorithm of session tokens.
	// "none" is always rejected and cannot be listed.
	Algorithms []Alg

	// Crypto is the signature backend. Nil selects StdCrypto.
	Crypto Crypto

	// Timeout bounds each key import and signature check.
	// Zero selects DefaultCryptoTimeout.
	Timeout time.Duration

	// Validators run, in order, after every other check has passed.
	Validators []TokenValidator

	// Logger receives a debug entry per rejected token. Nil disables it.
	Logger *zap.Logger
}

type (
	// TokenValidator provides further validation of a verified token.
	// Look Blocklist for a builtin implementation.
	TokenValidator interface {
		ValidateToken(t *DecodedToken) error
	}

	// TokenValidatorFunc is the interface-as-function shortcut for a TokenValidator.
	TokenValidatorFunc func(t *DecodedToken) error
)

// ValidateToken completes the TokenValidator interface.
// It calls itself.
func (fn TokenValidatorFunc) ValidateToken(t *DecodedToken) error {
	return fn(t)
}

// Verifier verifies session tokens against a fixed set of options.
// A Verifier is safe for concurrent use.
type Verifier struct {
	opts   VerifyOptions
	logger *zap.Logger
}

// NewVerifier returns a Verifier that applies opts, with the zero value of
// each field replaced by its default.
func NewVerifier(opts VerifyOptions) *Verifier {
	switch {
	case opts.ClockSkew == 0:
		opts.ClockSkew = DefaultClockSkew
	case opts.ClockSkew < 0:
		opts.ClockSkew = 0
	}

	if len(opts.Algorithms) == 0 {
		opts.Algorithms = []Alg{RS256}
	}

	if opts.Crypto == nil {
		opts.Crypto = StdCrypto{}
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCryptoTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Verifier{opts: opts, logger: logger}
}

// Verify decodes token and verifies it with opts.
// See Verifier.Verify.
func Verify(ctx context.Context, token string, opts VerifyOptions) (*DecodedToken, error) {
	return NewVerifier(opts).Verify(ctx, token)
}

// Verify decodes and verifies a session token. Checks run in this order
// and stop at the first failure:
//
//  1. structure and encoding (see Decode),
//  2. header: "alg" must not be "none" and must be accepted, "typ" must be
//     "JWT" when present,
//  3. claims: "sub", "aud", "azp", then "exp", "nbf" and "iat" against Clock,
//     then "iss",
//  4. key resolution from the "kid" header,
//  5. signature over the "header.payload" segments,
//  6. the configured Validators.
//
// Every error is a *VerificationError; match its kind with errors.Is, e.g.
// errors.Is(err, jwt.ErrExpired), or read its Reason.
func (v *Verifier) Verify(ctx context.Context, token string) (*DecodedToken, error) {
	t, verr := v.verify(ctx, token)
	if verr != nil {
		v.logger.Debug("token rejected",
			zap.String("reason", string(verr.Reason)),
			zap.String("kid", kidOf(t)),
			zap.Error(verr.Err))
		return nil, verr
	}

	return t, nil
}

// verify runs the checks in order and stops at the first failure, which
// it reports with the message of the failing stage.
func (v *Verifier) verify(ctx context.Context, token string) (*DecodedToken, *VerificationError) {
	t, err := Decode(token)
	if err != nil {
		return nil, newVerificationError("invalid token", err)
	}

	alg, err := v.checkHeader(t.Header)
	if err != nil {
		return t, newVerificationError("invalid token header", err)
	}

	if err = v.checkClaims(&t.Claims); err != nil {
		return t, newVerificationError("invalid token claims", err)
	}

	if v.opts.Key == nil {
		return t, newVerificationError("no key to verify the token with", ErrMissingKey)
	}

	key, err := v.opts.Key.ResolveKey(ctx, t.Header.Kid)
	if err != nil {
		return t, newVerificationError("failed to resolve the token key", err)
	}

	ok, err := v.hasValidSignature(ctx, t, alg, key)
	if err != nil {
		return t, newVerificationError("failed to verify the token signature", err)
	}

	if !ok {
		return t, newVerificationError("token signature is invalid", ErrTokenSignature)
	}

	for _, validator := range v.opts.Validators {
		if err = validator.ValidateToken(t); err != nil {
			return t, newVerificationError("token rejected by validator", err)
		}
	}

	return t, nil
}

// checkHeader rejects "none" before anything else, whatever the accepted
// list says, then checks the list and the token type.
func (v *Verifier) checkHeader(h Header) (Alg, error) {
	if isNoneAlg(h.Alg) {
		return nil, fmt.Errorf("%w: unsecured tokens are never accepted", ErrUnsupportedAlgorithm)
	}

	alg := parseAlg(h.Alg)
	if alg == nil || !slices.Contains(v.opts.Algorithms, alg) {
		return nil, fmt.Errorf("%w: %q is not one of %v", ErrUnsupportedAlgorithm, h.Alg, algNames(v.opts.Algorithms))
	}

	if h.Typ != "" && h.Typ != "JWT" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenType, h.Typ)
	}

	return alg, nil
}

func (v *Verifier) checkClaims(c *SessionClaims) error {
	if err := checkSubject(c); err != nil {
		return err
	}

	if err := checkAudience(c, v.opts.Audience); err != nil {
		return err
	}

	if err := checkAuthorizedParty(c, v.opts.AuthorizedParties); err != nil {
		return err
	}

	if err := checkTimes(c.Claims, Clock(), v.opts.ClockSkew); err != nil {
		return err
	}

	return checkIssuer(c, v.opts.Issuer)
}

// HasValidSignature reports whether the signature of t verifies under key,
// using the algorithm of t's header. It checks nothing else: claims are
// not validated and the accepted algorithm list does not apply.
func (v *Verifier) HasValidSignature(ctx context.Context, t *DecodedToken, key *JWK) (bool, error) {
	alg, err := ParseAlg(t.Header.Alg)
	if err != nil {
		return false, fmt.Errorf("%w: %q", err, t.Header.Alg)
	}

	return v.hasValidSignature(ctx, t, alg, key)
}

// HasValidSignature is Verifier.HasValidSignature with the default options.
func HasValidSignature(ctx context.Context, t *DecodedToken, key *JWK) (bool, error) {
	return NewVerifier(VerifyOptions{}).HasValidSignature(ctx, t, key)
}

func (v *Verifier) hasValidSignature(ctx context.Context, t *DecodedToken, alg Alg, key *JWK) (bool, error) {
	if len(t.Signature) == 0 {
		return false, fmt.Errorf("%w: empty signature", ErrMalformedToken)
	}

	cryptoKey, err := importKey(ctx, v.opts.Crypto, v.opts.Timeout, key, alg)
	if err != nil {
		return false, err
	}

	return verifySignature(ctx, v.opts.Crypto, v.opts.Timeout, cryptoKey, t.Signature, t.signed)
}

// Result is the tagged outcome of a verification: either Valid with the
// token and its claims, or not valid with a Reason and the error.
type Result struct {
	Valid  bool
	Token  *DecodedToken
	Claims *SessionClaims
	Reason Reason
	Err    error
}

// Result verifies token and folds the outcome into a Result.
func (v *Verifier) Result(ctx context.Context, token string) Result {
	t, err := v.Verify(ctx, token)
	if err != nil {
		var verr *VerificationError
		if errors.As(err, &verr) {
			return Result{Reason: verr.Reason, Err: err}
		}

		return Result{Reason: ReasonTokenVerificationFailed, Err: err}
	}

	return Result{Valid: true, Token: t, Claims: &t.Claims}
}

func algNames(algs []Alg) []string {
	names := make([]string, len(algs))
	for i, alg := range algs {
		names[i] = alg.Name()
	}

	return names
}

func kidOf(t *DecodedToken) string {
	if t == nil {
		return ""
	}

	return t.Header.Kid
}
