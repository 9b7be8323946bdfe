package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"
)

const testKid = "ins_test"

var (
	testKeysOnce sync.Once
	testRSAKey   *rsa.PrivateKey
	testECKey    *ecdsa.PrivateKey
	testEC384Key *ecdsa.PrivateKey
)

func loadTestKeys(t *testing.T) {
	t.Helper()

	testKeysOnce.Do(func() {
		var err error
		if testRSAKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
		if testECKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader); err != nil {
			panic(err)
		}
		if testEC384Key, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader); err != nil {
			panic(err)
		}
	})
}

func testRSAJWK(t *testing.T) *JWK {
	t.Helper()
	loadTestKeys(t)

	key, err := GenerateJWK(testKid, RS256, &testRSAKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	return key
}

func testECJWK(t *testing.T) *JWK {
	t.Helper()
	loadTestKeys(t)

	key, err := GenerateJWK("ec_test", ES256, &testECKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	return key
}

func testPublicKeyPEM(t *testing.T) string {
	t.Helper()
	loadTestKeys(t)

	der, err := x509.MarshalPKIXPublicKey(&testRSAKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// testSessionClaims returns the claims of a session token valid for a
// minute around Clock.
func testSessionClaims() SessionClaims {
	now := Clock()
	return SessionClaims{
		Claims: Claims{
			Subject:   "user_2abc",
			Issuer:    "https://clerk.example.com",
			IssuedAt:  NewNumericDate(now),
			NotBefore: NewNumericDate(now.Add(-10 * time.Second)),
			Expiry:    NewNumericDate(now.Add(time.Minute)),
		},
		SessionID:       "sess_2abc",
		AuthorizedParty: "https://example.com",
	}
}

func signTestToken(t *testing.T, claims any) string {
	t.Helper()
	loadTestKeys(t)

	token, err := Sign(RS256, testRSAKey, testKid, claims)
	if err != nil {
		t.Fatal(err)
	}

	return token
}

// setClock freezes Clock at now for the duration of the test.
func setClock(t *testing.T, now time.Time) {
	t.Helper()

	prev := Clock
	Clock = func() time.Time { return now }
	t.Cleanup(func() { Clock = prev })
}
