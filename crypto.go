package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCryptoTimeout bounds a single ImportKey or Verify call.
const DefaultCryptoTimeout = 5 * time.Second

// Crypto is the capability set token verification needs from a
// cryptographic backend. The verification logic is written once against
// it; backends differ only in the primitives they call.
//
// Implementations must be safe for concurrent use.
type Crypto interface {
	// DecodeBase64 decodes standard or URL safe base64, padded or not.
	// All backends must return identical bytes for identical input.
	DecodeBase64(s string) ([]byte, error)
	// ImportKey turns a JWK into a verify-only key handle for alg.
	// It fails with an error wrapping ErrKeyImport on malformed or
	// mismatched key material, ErrUnsupportedAlgorithm on an unknown alg.
	ImportKey(ctx context.Context, jwk *JWK, alg Alg) (*CryptoKey, error)
	// Verify reports whether signature is valid for data under key.
	// A mismatch is (false, nil); errors mean the check could not run.
	Verify(ctx context.Context, key *CryptoKey, signature, data []byte) (bool, error)
}

// CryptoKey is an imported, verify-only key. Its contents are owned by
// the backend that produced it; handing it to another backend fails.
type CryptoKey struct {
	alg     Alg
	kid     string
	backend Crypto
	key     any
}

// Alg returns the algorithm the key was imported for.
func (k *CryptoKey) Alg() Alg { return k.alg }

// KeyID returns the "kid" of the JWK the key was imported from.
func (k *CryptoKey) KeyID() string { return k.kid }

// StdCrypto is the Crypto backend built on the Go standard library.
// Its zero value is ready to use.
type StdCrypto struct{}

var _ Crypto = StdCrypto{}

// DecodeBase64 implements Crypto.
func (StdCrypto) DecodeBase64(s string) ([]byte, error) {
	return DecodeBase64(s)
}

// ImportKey implements Crypto.
func (c StdCrypto) ImportKey(ctx context.Context, jwk *JWK, alg Alg) (*CryptoKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkImport(jwk, alg); err != nil {
		return nil, err
	}

	publicKey, err := convertJWKToPublicKey(jwk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}

	return &CryptoKey{alg: alg, kid: jwk.Kid, backend: c, key: publicKey}, nil
}

// Verify implements Crypto.
func (c StdCrypto) Verify(ctx context.Context, key *CryptoKey, signature, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if key == nil || key.backend != Crypto(c) {
		return false, fmt.Errorf("%w: key was not imported by this backend", ErrKeyImport)
	}

	err := key.alg.Verify(key.key, data, signature)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTokenSignature):
		return false, nil
	case errors.Is(err, ErrInvalidKey):
		return false, fmt.Errorf("%w: %v", ErrKeyImport, err)
	default:
		return false, err
	}
}

// checkImport runs the backend independent checks of ImportKey.
func checkImport(jwk *JWK, alg Alg) error {
	if alg == nil || parseAlg(alg.Name()) == nil {
		return ErrUnsupportedAlgorithm
	}

	if jwk == nil {
		return ErrMissingKey
	}

	if err := jwk.checkUsage(); err != nil {
		return err
	}

	return jwk.checkAlg(alg)
}

// importKey calls c.ImportKey bounded by timeout.
func importKey(ctx context.Context, c Crypto, timeout time.Duration, jwk *JWK, alg Alg) (*CryptoKey, error) {
	return withTimeout(ctx, timeout, func(ctx context.Context) (*CryptoKey, error) {
		return c.ImportKey(ctx, jwk, alg)
	})
}

// verifySignature calls c.Verify bounded by timeout.
func verifySignature(ctx context.Context, c Crypto, timeout time.Duration, key *CryptoKey, signature, data []byte) (bool, error) {
	return withTimeout(ctx, timeout, func(ctx context.Context) (bool, error) {
		return c.Verify(ctx, key, signature, data)
	})
}

// withTimeout runs fn in its own goroutine and gives up when ctx is done
// or timeout elapses, whichever comes first. A backend that never returns
// leaks only its own goroutine; the caller is released.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultCryptoTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		// a result that raced with the deadline is not trusted.
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
