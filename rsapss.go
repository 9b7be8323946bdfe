package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
)

// algRSAPSS implements the PS256, PS384 and PS512 algorithms.
// It shares key material with algRSA; only the padding differs.
type algRSAPSS struct {
	name string
	opts *rsa.PSSOptions
}

func (a *algRSAPSS) Name() string {
	return a.name
}

func (a *algRSAPSS) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	h := a.opts.Hash.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return nil, err
	}

	hashed := h.Sum(nil)
	// RFC 7518 3.5: the salt is as long as the hash output. Verify
	// accepts any salt length.
	return rsa.SignPSS(rand.Reader, privateKey, a.opts.Hash, hashed, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       a.opts.Hash,
	})
}

func (a *algRSAPSS) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		if privateKey, ok := key.(*rsa.PrivateKey); ok {
			publicKey = &privateKey.PublicKey
		} else {
			return ErrInvalidKey
		}
	}

	h := a.opts.Hash.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return err
	}

	hashed := h.Sum(nil)
	if err = rsa.VerifyPSS(publicKey, a.opts.Hash, hashed, signature, a.opts); err != nil {
		if errors.Is(err, rsa.ErrVerification) {
			return fmt.Errorf("%w: %v", ErrTokenSignature, err)
		}

		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return nil
}
