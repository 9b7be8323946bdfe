package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"
)

type algECDSA struct {
	name      string
	hasher    crypto.Hash
	keySize   int
	curveBits int
}

func (a *algECDSA) Name() string {
	return a.name
}

func (a *algECDSA) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	privateKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	if a.curveBits != privateKey.Curve.Params().BitSize {
		return nil, ErrInvalidKey
	}

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return nil, err
	}

	hashed := h.Sum(nil)
	r, s, err := ecdsa.Sign(rand.Reader, privateKey, hashed)
	if err != nil {
		return nil, err
	}

	// JWS uses the fixed size R||S form, not ASN.1.
	signature := make([]byte, 2*a.keySize)
	r.FillBytes(signature[:a.keySize])
	s.FillBytes(signature[a.keySize:])
	return signature, nil
}

func (a *algECDSA) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	publicKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		if privateKey, ok := key.(*ecdsa.PrivateKey); ok {
			publicKey = &privateKey.PublicKey
		} else {
			return ErrInvalidKey
		}
	}

	if a.curveBits != publicKey.Curve.Params().BitSize {
		return ErrInvalidKey
	}

	if len(signature) != 2*a.keySize {
		return ErrTokenSignature
	}

	r := new(big.Int).SetBytes(signature[:a.keySize])
	s := new(big.Int).SetBytes(signature[a.keySize:])

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return err
	}

	hashed := h.Sum(nil)
	if !ecdsa.Verify(publicKey, hashed, r, s) {
		return ErrTokenSignature
	}

	return nil
}
