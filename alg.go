package jwt

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha256" // ignore:lint
	_ "crypto/sha512"
	"errors"
	"strings"
)

var (
	// ErrTokenSignature indicates that the signature of the token does not
	// match its header and payload. The token may have been tampered with
	// or signed by a key other than the one it was verified against.
	ErrTokenSignature = errors.New("jwt: invalid token signature")

	// ErrInvalidKey indicates that the key handed to an algorithm is not of
	// the type that algorithm expects, e.g. an ECDSA key passed to RS256.
	ErrInvalidKey = errors.New("jwt: invalid key")
)

type (
	// PublicKey is the verification half of a key pair:
	// *rsa.PublicKey for the RS and PS families, *ecdsa.PublicKey for ES.
	PublicKey = any
	// PrivateKey is the signing half of a key pair:
	// *rsa.PrivateKey for the RS and PS families, *ecdsa.PrivateKey for ES.
	PrivateKey = any
)

// Alg represents an asymmetric signature algorithm that can appear in the
// "alg" field of a token header.
//
// Session tokens issued by the Frontend API are RS256; the other members
// of the RSA, RSA-PSS and ECDSA families are supported so tokens minted by
// custom JWT templates can be verified too. Symmetric algorithms are not
// implemented: a verifier only ever holds public key material.
type Alg interface {
	// Name returns the RFC 7518 identifier, e.g. "RS256".
	Name() string
	// Sign signs the "header.payload" bytes and returns the raw signature.
	Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error)
	// Verify returns nil when signature is valid for headerAndPayload.
	// A signature mismatch is reported as an error wrapping ErrTokenSignature,
	// a wrong key type as ErrInvalidKey.
	Verify(key PublicKey, headerAndPayload []byte, signature []byte) error
}

var (
	// RS256 is RSASSA-PKCS1-v1_5 using SHA-256. It is the algorithm of every
	// session token and the default of VerifyOptions.Algorithms.
	RS256 Alg = &algRSA{"RS256", crypto.SHA256}
	// RS384 is RSASSA-PKCS1-v1_5 using SHA-384.
	RS384 Alg = &algRSA{"RS384", crypto.SHA384}
	// RS512 is RSASSA-PKCS1-v1_5 using SHA-512.
	RS512 Alg = &algRSA{"RS512", crypto.SHA512}

	// PS256 is RSASSA-PSS using SHA-256 and MGF1 with SHA-256.
	PS256 Alg = &algRSAPSS{"PS256", &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}}
	// PS384 is RSASSA-PSS using SHA-384 and MGF1 with SHA-384.
	PS384 Alg = &algRSAPSS{"PS384", &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA384}}
	// PS512 is RSASSA-PSS using SHA-512 and MGF1 with SHA-512.
	PS512 Alg = &algRSAPSS{"PS512", &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA512}}

	// ES256 is ECDSA using P-256 and SHA-256.
	ES256 Alg = &algECDSA{"ES256", crypto.SHA256, 32, 256}
	// ES384 is ECDSA using P-384 and SHA-384.
	ES384 Alg = &algECDSA{"ES384", crypto.SHA384, 48, 384}
	// ES512 is ECDSA using P-521 and SHA-512.
	ES512 Alg = &algECDSA{"ES512", crypto.SHA512, 66, 521}
)

var allAlgs = []Alg{RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512}

// parseAlg returns the algorithm registered under name, or nil.
// The lookup is case sensitive, as the header field is.
func parseAlg(name string) Alg {
	for _, alg := range allAlgs {
		if alg.Name() == name {
			return alg
		}
	}

	return nil
}

// ParseAlg returns the algorithm identified by name ("RS256", "ES384"...).
// It returns ErrUnsupportedAlgorithm for "none" in any letter case and for
// every name this package does not implement.
func ParseAlg(name string) (Alg, error) {
	if isNoneAlg(name) {
		return nil, ErrUnsupportedAlgorithm
	}

	alg := parseAlg(name)
	if alg == nil {
		return nil, ErrUnsupportedAlgorithm
	}

	return alg, nil
}

// isNoneAlg reports whether name designates an unsecured JWT.
func isNoneAlg(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "none")
}

// keyType returns the JWK "kty" an algorithm's keys must carry.
func keyType(alg Alg) string {
	switch alg.(type) {
	case *algRSA, *algRSAPSS:
		return "RSA"
	case *algECDSA:
		return "EC"
	default:
		return ""
	}
}

// curveName returns the JWK "crv" an ECDSA algorithm requires,
// empty for the other families.
func curveName(alg Alg) string {
	a, ok := alg.(*algECDSA)
	if !ok {
		return ""
	}

	switch a.curveBits {
	case 256:
		return "P-256"
	case 384:
		return "P-384"
	case 521:
		return "P-521"
	default:
		return ""
	}
}
