package jwt

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by Verify wraps exactly one of them,
// test with errors.Is.
var (
	// ErrTokenStructure indicates that the token is not three non-empty,
	// dot separated segments.
	ErrTokenStructure = errors.New("jwt: invalid token structure")
	// ErrMalformedToken indicates that a segment is not valid base64url
	// or that the header or payload is not a JSON object.
	ErrMalformedToken = errors.New("jwt: malformed token")
	// ErrUnsupportedAlgorithm indicates an "alg" that is "none", missing,
	// unknown, or not in the accepted list.
	ErrUnsupportedAlgorithm = errors.New("jwt: unsupported algorithm")
	// ErrInvalidTokenType indicates a "typ" header other than "JWT".
	ErrInvalidTokenType = errors.New("jwt: invalid token type")
	// ErrExpired indicates that the token is used after its "exp" claim.
	ErrExpired = errors.New("jwt: token expired")
	// ErrNotValidYet indicates that the token is used before its "nbf" claim.
	ErrNotValidYet = errors.New("jwt: token not valid yet")
	// ErrIssuedInTheFuture indicates that the "iat" claim is in the future.
	ErrIssuedInTheFuture = errors.New("jwt: token issued in the future")
	// ErrMissingSubject indicates a token without a "sub" claim.
	ErrMissingSubject = errors.New("jwt: missing subject claim")
	// ErrInvalidAuthorizedParty indicates an "azp" claim outside of the
	// accepted authorized parties.
	ErrInvalidAuthorizedParty = errors.New("jwt: invalid authorized party")
	// ErrInvalidAudience indicates an "aud" claim that shares no value with
	// the accepted audience.
	ErrInvalidAudience = errors.New("jwt: invalid audience")
	// ErrInvalidIssuer indicates an "iss" claim rejected by the issuer check.
	ErrInvalidIssuer = errors.New("jwt: invalid issuer")
	// ErrKeyImport indicates key material that cannot be used for
	// verification with the token's algorithm.
	ErrKeyImport = errors.New("jwt: key import failed")
	// ErrKidMismatch indicates that no key of the key set matches the
	// token's "kid" header.
	ErrKidMismatch = errors.New("jwt: no key matches the kid")
	// ErrMissingKey indicates that VerifyOptions carries no key.
	ErrMissingKey = errors.New("jwt: missing verification key")
	// ErrInvalidSecretKey indicates an empty or malformed secret key.
	ErrInvalidSecretKey = errors.New("jwt: invalid secret key")
	// ErrJWKSLoad indicates that the remote key set could not be loaded.
	ErrJWKSLoad = errors.New("jwt: failed to load JWKS")
)

// Reason is the machine readable cause of a failed verification.
// The values match the ones the Frontend API and the JavaScript SDKs use,
// so they can be forwarded to clients unchanged.
type Reason string

// Reasons reported by VerificationError.
const (
	ReasonTokenInvalid                  Reason = "token-invalid"
	ReasonTokenMalformed                Reason = "token-malformed"
	ReasonTokenInvalidAlgorithm         Reason = "token-invalid-algorithm"
	ReasonTokenInvalidType              Reason = "token-invalid-type"
	ReasonTokenExpired                  Reason = "token-expired"
	ReasonTokenNotActiveYet             Reason = "token-not-active-yet"
	ReasonTokenIatInTheFuture           Reason = "token-iat-in-the-future"
	ReasonTokenMissingSubject           Reason = "token-missing-subject"
	ReasonTokenInvalidAuthorizedParties Reason = "token-invalid-authorized-parties"
	ReasonTokenInvalidAudience          Reason = "token-invalid-audience"
	ReasonTokenInvalidIssuer            Reason = "token-invalid-issuer"
	ReasonTokenInvalidSignature         Reason = "token-invalid-signature"
	ReasonJWKFailedToImport             Reason = "jwk-failed-to-import"
	ReasonJWKKidMismatch                Reason = "jwk-kid-mismatch"
	ReasonJWKLocalMissing               Reason = "jwk-local-missing"
	ReasonJWKRemoteFailedToLoad         Reason = "jwk-remote-failed-to-load"
	ReasonSecretKeyInvalid              Reason = "secret-key-invalid"
	ReasonTokenVerificationFailed       Reason = "token-verification-failed"
)

type reasonKind struct {
	reason Reason
	kind   error
}

// reasonKinds is ordered: the first kind an error matches wins.
var reasonKinds = []reasonKind{
	{ReasonTokenInvalid, ErrTokenStructure},
	{ReasonTokenMalformed, ErrMalformedToken},
	{ReasonTokenInvalidAlgorithm, ErrUnsupportedAlgorithm},
	{ReasonTokenInvalidType, ErrInvalidTokenType},
	{ReasonTokenExpired, ErrExpired},
	{ReasonTokenNotActiveYet, ErrNotValidYet},
	{ReasonTokenIatInTheFuture, ErrIssuedInTheFuture},
	{ReasonTokenMissingSubject, ErrMissingSubject},
	{ReasonTokenInvalidAuthorizedParties, ErrInvalidAuthorizedParty},
	{ReasonTokenInvalidAudience, ErrInvalidAudience},
	{ReasonTokenInvalidIssuer, ErrInvalidIssuer},
	{ReasonTokenInvalidSignature, ErrTokenSignature},
	{ReasonJWKFailedToImport, ErrKeyImport},
	{ReasonJWKKidMismatch, ErrKidMismatch},
	{ReasonJWKLocalMissing, ErrMissingKey},
	{ReasonJWKRemoteFailedToLoad, ErrJWKSLoad},
	{ReasonSecretKeyInvalid, ErrInvalidSecretKey},
	{ReasonTokenMalformed, ErrDecode},
}

// reasonOf maps an error to the Reason of the first kind it wraps.
func reasonOf(err error) Reason {
	for _, rk := range reasonKinds {
		if errors.Is(err, rk.kind) {
			return rk.reason
		}
	}

	return ReasonTokenVerificationFailed
}

// VerificationError is returned by every failed verification.
//
// It matches both its kind (errors.Is(err, ErrExpired)) and the underlying
// cause, if any (errors.Is(err, context.DeadlineExceeded)).
type VerificationError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jwt: %s: %s: %v", e.Reason, e.Message, e.Err)
	}

	return fmt.Sprintf("jwt: %s: %s", e.Reason, e.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error kind of e.Reason.
func (e *VerificationError) Is(target error) bool {
	for _, rk := range reasonKinds {
		if rk.reason == e.Reason && rk.kind == target {
			return true
		}
	}

	return false
}

// newVerificationError wraps err with the reason it maps to.
func newVerificationError(message string, err error) *VerificationError {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr
	}

	return &VerificationError{
		Reason:  reasonOf(err),
		Message: message,
		Err:     err,
	}
}
