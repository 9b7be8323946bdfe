package jwt

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

type algRSA struct {
	name   string
	hasher crypto.Hash
}

func (a *algRSA) Name() string {
	return a.name
}

func (a *algRSA) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return nil, err
	}

	hashed := h.Sum(nil)
	return rsa.SignPKCS1v15(rand.Reader, privateKey, a.hasher, hashed)
}

func (a *algRSA) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		if privateKey, ok := key.(*rsa.PrivateKey); ok {
			publicKey = &privateKey.PublicKey
		} else {
			return ErrInvalidKey
		}
	}

	h := a.hasher.New()
	// header.payload
	_, err := h.Write(headerAndPayload)
	if err != nil {
		return err
	}

	hashed := h.Sum(nil)
	if err = rsa.VerifyPKCS1v15(publicKey, a.hasher, hashed, signature); err != nil {
		if errors.Is(err, rsa.ErrVerification) {
			return fmt.Errorf("%w: %v", ErrTokenSignature, err)
		}

		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return nil
}

// Key Helpers.

const (
	pemPublicKeyHeader = "-----BEGIN PUBLIC KEY-----"
	pemPublicKeyFooter = "-----END PUBLIC KEY-----"
)

// ParsePublicKeyRSA decodes and parses a PEM-encoded RSA public key
// in PKIX format, or a certificate carrying one.
//
// The armor lines are optional: the dashboard displays the JWT public key
// as a single base64 line and environment variables frequently lose the
// line breaks, so a bare or single-line body is wrapped before decoding.
func ParsePublicKeyRSA(key []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(normalizePEM(key))
	if block == nil {
		return nil, fmt.Errorf("public key: malformed or missing PEM format (RSA)")
	}

	parsedKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
			parsedKey = cert.PublicKey
		} else {
			return nil, err
		}
	}

	publicKey, ok := parsedKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key: expected a type of *rsa.PublicKey")
	}

	return publicKey, nil
}

// ParsePrivateKeyRSA decodes and parses PEM-encoded RSA private key bytes
// in PKCS#1 or PKCS#8 format.
func ParsePrivateKeyRSA(key []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, fmt.Errorf("private key: malformed or missing PEM format (RSA)")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			pKey, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("private key: expected a type of *rsa.PrivateKey")
			}

			privateKey = pKey
		} else {
			return nil, err
		}
	}

	return privateKey, nil
}

// normalizePEM rebuilds a public key PEM block out of whatever survived
// copy and paste: the armor may be missing, and the body may be on one
// line or contain escaped "\n" sequences.
func normalizePEM(key []byte) []byte {
	s := strings.TrimSpace(string(key))
	s = strings.ReplaceAll(s, `\n`, "\n")
	if strings.Contains(s, "\n") && strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s)
	}

	body := strings.TrimPrefix(s, pemPublicKeyHeader)
	body = strings.TrimSuffix(body, pemPublicKeyFooter)
	body = strings.Join(strings.Fields(body), "")

	var b strings.Builder
	b.WriteString(pemPublicKeyHeader)
	b.WriteByte('\n')
	for len(body) > 64 {
		b.WriteString(body[:64])
		b.WriteByte('\n')
		body = body[64:]
	}
	if body != "" {
		b.WriteString(body)
		b.WriteByte('\n')
	}
	b.WriteString(pemPublicKeyFooter)
	b.WriteByte('\n')

	return []byte(b.String())
}
