package jwt

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestLocalKey(t *testing.T) {
	armored := testPublicKeyPEM(t)

	der, err := x509.MarshalPKIXPublicKey(&testRSAKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	bare := base64.StdEncoding.EncodeToString(der)

	inputs := map[string]string{
		"armored":         armored,
		"bare":            bare,
		"single line":     "-----BEGIN PUBLIC KEY-----" + bare + "-----END PUBLIC KEY-----",
		"escaped newline": strings.ReplaceAll(armored, "\n", `\n`),
		"padded":          "\n  " + armored + "  \n",
	}

	want := testRSAJWK(t)
	for name, in := range inputs {
		key, err := LocalKey(in)
		if err != nil {
			t.Fatalf("[%s] unexpected error: %v", name, err)
		}

		if key.Kid != LocalKeyID || key.Alg != "RS256" || key.Kty != "RSA" || key.Use != "sig" {
			t.Fatalf("[%s] unexpected key metadata: %+v", name, key)
		}

		if key.N != want.N || key.E != want.E {
			t.Fatalf("[%s] expected the key material of the test key", name)
		}
	}

	if _, err = LocalKey(""); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey but got: %v", err)
	}

	for _, in := range []string{"not a key", "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----"} {
		if _, err = LocalKey(in); !errors.Is(err, ErrKeyImport) {
			t.Fatalf("[%q] expected ErrKeyImport but got: %v", in, err)
		}
	}
}

func TestParseJWKS(t *testing.T) {
	doc := `{"keys":[
		{"kty":"RSA","kid":"ins_1","use":"sig","alg":"RS256","n":"` + testRSAJWK(t).N + `","e":"AQAB"},
		{"kty":"EC","kid":"ins_2","crv":"P-256","x":"` + testECJWK(t).X + `","y":"` + testECJWK(t).Y + `"}
	]}`

	set, err := ParseJWKS([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	if len(set.Keys) != 2 {
		t.Fatalf("expected 2 keys but got: %d", len(set.Keys))
	}

	key, ok := set.Lookup("ins_2")
	if !ok || key.Kty != "EC" || key.Crv != "P-256" {
		t.Fatalf("unexpected lookup result: %+v, %v", key, ok)
	}

	if _, ok = set.Lookup("ins_3"); ok {
		t.Fatalf("expected no key for an unknown kid")
	}

	if _, err = ParseJWKS([]byte(`{"keys":`)); err == nil {
		t.Fatalf("expected an error for a truncated document")
	}
}

func TestKeyResolvers(t *testing.T) {
	ctx := context.Background()
	rsaKey := testRSAJWK(t)
	ecKey := testECJWK(t)

	single := &JWKS{Keys: []*JWK{rsaKey}}
	if key, err := single.ResolveKey(ctx, ""); err != nil || key != rsaKey {
		t.Fatalf("expected a single key set to serve tokens without kid: %v", err)
	}

	pair := &JWKS{Keys: []*JWK{rsaKey, ecKey}}
	if _, err := pair.ResolveKey(ctx, ""); !errors.Is(err, ErrKidMismatch) {
		t.Fatalf("expected ErrKidMismatch without kid on a larger set but got: %v", err)
	}
	if key, err := pair.ResolveKey(ctx, "ec_test"); err != nil || key != ecKey {
		t.Fatalf("expected the EC key: %v", err)
	}

	var nilSet *JWKS
	if _, err := nilSet.ResolveKey(ctx, testKid); !errors.Is(err, ErrKidMismatch) {
		t.Fatalf("expected ErrKidMismatch on a nil set but got: %v", err)
	}

	tests := []struct {
		kid string
		ok  bool
	}{
		{"", true},
		{testKid, true},
		{"ins_other", false},
	}
	for _, tt := range tests {
		_, err := rsaKey.ResolveKey(ctx, tt.kid)
		if (err == nil) != tt.ok {
			t.Fatalf("[%q] unexpected result: %v", tt.kid, err)
		}
	}

	local, err := LocalKey(testPublicKeyPEM(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = local.ResolveKey(ctx, "ins_whatever"); err != nil {
		t.Fatalf("expected the local key to serve any kid: %v", err)
	}

	var nilKey *JWK
	if _, err = nilKey.ResolveKey(ctx, testKid); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey on a nil key but got: %v", err)
	}

	keys := make(Keys)
	keys.Register(rsaKey)
	keys.Register(ecKey)
	if key, ok := keys.Get("ec_test"); !ok || key != ecKey {
		t.Fatalf("expected the registered EC key")
	}
	if _, err = keys.ResolveKey(ctx, "ins_other"); !errors.Is(err, ErrKidMismatch) {
		t.Fatalf("expected ErrKidMismatch but got: %v", err)
	}
}

func TestGenerateJWKRoundTrip(t *testing.T) {
	loadTestKeys(t)

	for _, tt := range []struct {
		alg Alg
		key PublicKey
	}{
		{RS256, &testRSAKey.PublicKey},
		{ES256, &testECKey.PublicKey},
		{ES384, &testEC384Key.PublicKey},
	} {
		jwk, err := GenerateJWK("k", tt.alg, tt.key)
		if err != nil {
			t.Fatal(err)
		}

		got, err := convertJWKToPublicKey(jwk)
		if err != nil {
			t.Fatalf("[%s] %v", tt.alg.Name(), err)
		}

		if eq, ok := got.(interface{ Equal(x crypto.PublicKey) bool }); !ok || !eq.Equal(tt.key) {
			t.Fatalf("[%s] expected the same public key back", tt.alg.Name())
		}
	}

	if _, err := GenerateJWK("k", RS256, "not a key"); err == nil {
		t.Fatalf("expected an error for an unsupported key type")
	}
}

func TestConvertJWKRejectsOffCurvePoints(t *testing.T) {
	key := *testECJWK(t)
	y, err := DecodeSegment(key.Y)
	if err != nil {
		t.Fatal(err)
	}
	y[len(y)-1] ^= 0x01
	key.Y = Base64Encode(y)

	if _, err = convertJWKToPublicKey(&key); err == nil {
		t.Fatalf("expected a point off the curve to be rejected")
	}
}
