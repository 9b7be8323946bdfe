package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
)

// LocalKeyID is the "kid" given to the key built by LocalKey.
const LocalKeyID = "local"

type (
	// JWK represents a JSON Web Key (RFC 7517) holding public key material.
	JWK struct {
		Kty    string   `json:"kty"`               // Key type: "RSA" or "EC"
		Kid    string   `json:"kid,omitempty"`     // Key ID
		Use    string   `json:"use,omitempty"`     // Key use, "sig" when present
		KeyOps []string `json:"key_ops,omitempty"` // Key operations, must include "verify" when present
		Alg    string   `json:"alg,omitempty"`     // Algorithm, e.g. "RS256"
		Crv    string   `json:"crv,omitempty"`     // Curve name, e.g. "P-256"
		N      string   `json:"n,omitempty"`       // RSA modulus (base64url)
		E      string   `json:"e,omitempty"`       // RSA exponent (base64url)
		X      string   `json:"x,omitempty"`       // EC x coordinate (base64url)
		Y      string   `json:"y,omitempty"`       // EC y coordinate (base64url)
	}

	// JWKS represents a JSON Web Key Set.
	JWKS struct {
		Keys []*JWK `json:"keys"`
	}
)

// ParseJWKS decodes a JSON Web Key Set document.
func ParseJWKS(b []byte) (*JWKS, error) {
	var set JWKS
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, err
	}

	return &set, nil
}

// Lookup returns the key whose "kid" equals kid.
func (set *JWKS) Lookup(kid string) (*JWK, bool) {
	if set == nil {
		return nil, false
	}

	for _, key := range set.Keys {
		if key != nil && key.Kid == kid {
			return key, true
		}
	}

	return nil, false
}

// ResolveKey implements KeyResolver. A set holding a single key serves
// tokens without a "kid" header too.
func (set *JWKS) ResolveKey(_ context.Context, kid string) (*JWK, error) {
	if kid == "" && set != nil && len(set.Keys) == 1 {
		return set.Keys[0], nil
	}

	key, ok := set.Lookup(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKidMismatch, kid)
	}

	return key, nil
}

// ResolveKey implements KeyResolver: a single key serves every token,
// unless both the key and the token name a "kid" and they differ.
func (jwk *JWK) ResolveKey(_ context.Context, kid string) (*JWK, error) {
	if jwk == nil {
		return nil, ErrMissingKey
	}

	if kid != "" && jwk.Kid != "" && jwk.Kid != LocalKeyID && kid != jwk.Kid {
		return nil, fmt.Errorf("%w: %q", ErrKidMismatch, kid)
	}

	return jwk, nil
}

// checkUsage rejects keys that are not meant for signature verification.
func (jwk *JWK) checkUsage() error {
	if jwk.Use != "" && jwk.Use != "sig" {
		return fmt.Errorf("%w: key use %q is not \"sig\"", ErrKeyImport, jwk.Use)
	}

	if len(jwk.KeyOps) > 0 && !slices.Contains(jwk.KeyOps, "verify") {
		return fmt.Errorf("%w: key operations %v do not allow verify", ErrKeyImport, jwk.KeyOps)
	}

	return nil
}

// checkAlg rejects keys whose type, curve or declared algorithm
// disagree with the token's algorithm.
func (jwk *JWK) checkAlg(alg Alg) error {
	if jwk.Alg != "" && jwk.Alg != alg.Name() {
		return fmt.Errorf("%w: key algorithm %q does not match token algorithm %q", ErrKeyImport, jwk.Alg, alg.Name())
	}

	if kty := keyType(alg); jwk.Kty != kty {
		return fmt.Errorf("%w: key type %q cannot verify %s", ErrKeyImport, jwk.Kty, alg.Name())
	}

	if crv := curveName(alg); crv != "" && jwk.Crv != crv {
		return fmt.Errorf("%w: curve %q cannot verify %s", ErrKeyImport, jwk.Crv, alg.Name())
	}

	return nil
}

//
// convert jwk to public key.
//

func convertJWKToPublicKey(jwk *JWK) (PublicKey, error) {
	switch jwk.Kty {
	case "RSA":
		publicKey, err := convertJWKToPublicKeyRSA(jwk)
		if err != nil {
			return nil, fmt.Errorf("parse RSA key: %w", err)
		}

		return publicKey, nil
	case "EC":
		publicKey, err := convertJWKToPublicKeyEC(jwk)
		if err != nil {
			return nil, fmt.Errorf("parse EC key: %w", err)
		}

		return publicKey, nil
	default:
		return nil, fmt.Errorf("unsupported key type: %q", jwk.Kty)
	}
}

func convertJWKToPublicKeyRSA(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := DecodeSegment(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}

	eBytes, err := DecodeSegment(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}

	if len(eBytes) > 4 {
		return nil, fmt.Errorf("exponent too large")
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	if e < 3 || e%2 == 0 {
		return nil, fmt.Errorf("invalid exponent %d", e)
	}

	publicKey := &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}

	if err = checkKeySizeRSA(publicKey); err != nil {
		return nil, err
	}

	return publicKey, nil
}

// minKeyBitsRSA is the smallest modulus the rsa package verifies with.
const minKeyBitsRSA = 1024

func checkKeySizeRSA(publicKey *rsa.PublicKey) error {
	if bits := publicKey.N.BitLen(); bits < minKeyBitsRSA {
		return fmt.Errorf("modulus of %d bits, at least %d required", bits, minKeyBitsRSA)
	}

	return nil
}

func convertJWKToPublicKeyEC(jwk *JWK) (*ecdsa.PublicKey, error) {
	xBytes, err := DecodeSegment(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("x coordinate: %w", err)
	}

	yBytes, err := DecodeSegment(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("y coordinate: %w", err)
	}

	var curve elliptic.Curve
	switch jwk.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported elliptic curve %q", jwk.Crv)
	}

	publicKey := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}

	// ECDH validates that the point is on the curve.
	if _, err = publicKey.ECDH(); err != nil {
		return nil, err
	}

	return publicKey, nil
}

//
// convert public key to JWK.
//

// GenerateJWK builds the JWK of an RSA or ECDSA public key.
func GenerateJWK(kid string, alg Alg, publicKey PublicKey) (*JWK, error) {
	switch publicKey := publicKey.(type) {
	case *rsa.PublicKey:
		return &JWK{
			Kty: "RSA",
			Kid: kid,
			Use: "sig",
			Alg: alg.Name(),
			N:   Base64Encode(publicKey.N.Bytes()),
			E:   Base64Encode(big.NewInt(int64(publicKey.E)).Bytes()),
		}, nil
	case *ecdsa.PublicKey:
		crv := publicKey.Curve.Params().Name
		size := (publicKey.Curve.Params().BitSize + 7) / 8
		x := make([]byte, size)
		y := make([]byte, size)
		publicKey.X.FillBytes(x)
		publicKey.Y.FillBytes(y)

		return &JWK{
			Kty: "EC",
			Kid: kid,
			Use: "sig",
			Alg: alg.Name(),
			Crv: crv,
			X:   Base64Encode(x),
			Y:   Base64Encode(y),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported public key type: %T", publicKey)
	}
}

// LocalKey converts the PEM encoded JWT public key of an instance (the
// CLERK_JWT_KEY value) into an RS256 JWK, so session tokens can be
// verified without a network round trip. The armor lines are optional.
func LocalKey(pemKey string) (*JWK, error) {
	if pemKey == "" {
		return nil, ErrMissingKey
	}

	publicKey, err := ParsePublicKeyRSA([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}

	return GenerateJWK(LocalKeyID, RS256, publicKey)
}
