package jwt

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// JWXCrypto is the Crypto backend built on github.com/lestrrat-go/jwx.
// Key import goes through jwk.ParseKey and signature checks through the
// jws verifiers, so it shares no cryptographic code path with StdCrypto.
// Its zero value is ready to use.
type JWXCrypto struct{}

var _ Crypto = JWXCrypto{}

// DecodeBase64 implements Crypto. The codec is shared with StdCrypto so
// both backends return identical bytes.
func (JWXCrypto) DecodeBase64(s string) ([]byte, error) {
	return DecodeBase64(s)
}

// ImportKey implements Crypto.
func (c JWXCrypto) ImportKey(ctx context.Context, key *JWK, alg Alg) (*CryptoKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkImport(key, alg); err != nil {
		return nil, err
	}

	b, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}

	parsed, err := jwk.ParseKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}

	var raw any
	if err = parsed.Raw(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}

	if publicKey, ok := raw.(*rsa.PublicKey); ok {
		if err = checkKeySizeRSA(publicKey); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
		}
	}

	return &CryptoKey{alg: alg, kid: key.Kid, backend: c, key: raw}, nil
}

// Verify implements Crypto.
func (c JWXCrypto) Verify(ctx context.Context, key *CryptoKey, signature, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if key == nil || key.backend != Crypto(c) {
		return false, fmt.Errorf("%w: key was not imported by this backend", ErrKeyImport)
	}

	verifier, err := jws.NewVerifier(jwa.SignatureAlgorithm(key.alg.Name()))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, err)
	}

	// Key type and size were checked on import, any failure left is a mismatch.
	if err = verifier.Verify(data, signature, key.key); err != nil {
		return false, nil
	}

	return true, nil
}
