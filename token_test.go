package jwt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	setClock(t, time.Unix(1700000000, 0))

	claims := testSessionClaims()
	claims.ActiveOrganizationID = "org_1"
	token := signTestToken(t, claims)

	decoded, err := Decode(token)
	if err != nil {
		t.Fatal(err)
	}

	if decoded.Header != (Header{Alg: "RS256", Typ: "JWT", Kid: testKid}) {
		t.Fatalf("unexpected header: %+v", decoded.Header)
	}

	if decoded.Claims.ActiveOrganizationID != "org_1" || decoded.Claims.Expiry != claims.Expiry {
		t.Fatalf("unexpected claims: %+v", decoded.Claims)
	}

	if want := token[:strings.LastIndex(token, ".")]; string(decoded.signed) != want {
		t.Fatalf("expected the signed input to be the first two segments")
	}

	var custom struct {
		OrgID string `json:"org_id"`
	}
	if err = decoded.Unmarshal(&custom); err != nil || custom.OrgID != "org_1" {
		t.Fatalf("expected Unmarshal to read the payload: %v, %+v", err, custom)
	}
}

func TestDecodeErrors(t *testing.T) {
	payload := Base64Encode([]byte(`{"sub":"user_1"}`))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"two segments", "a.b", ErrTokenStructure},
		{"empty signature", Base64Encode([]byte(`{"alg":"RS256"}`)) + "." + payload + ".", ErrTokenStructure},
		{"no alg", Base64Encode([]byte(`{"typ":"JWT"}`)) + "." + payload + ".c2ln", ErrUnsupportedAlgorithm},
		{"header array", Base64Encode([]byte(`[]`)) + "." + payload + ".c2ln", ErrMalformedToken},
		{"payload number", Base64Encode([]byte(`{"alg":"RS256"}`)) + "." + Base64Encode([]byte(`1`)) + ".c2ln", ErrMalformedToken},
		{"bad base64", "!." + payload + ".c2ln", ErrMalformedToken},
		{"unsecured", Base64Encode([]byte(`{"alg":"none"}`)) + "." + payload + ".", ErrUnsupportedAlgorithm},
		{"unsecured mixed case", Base64Encode([]byte(`{"alg":"NoNe","typ":"JWT"}`)) + "." + payload + ".", ErrUnsupportedAlgorithm},
		{"unsecured extra segment", Base64Encode([]byte(`{"alg":"none"}`)) + "." + payload + "..", ErrTokenStructure},
	}

	for _, tt := range tests {
		decoded, err := Decode(tt.token)
		if !errors.Is(err, tt.want) {
			t.Fatalf("[%s] expected %v but got: %v", tt.name, tt.want, err)
		}
		if decoded != nil {
			t.Fatalf("[%s] expected no token on error", tt.name)
		}
	}
}

func TestSignOptions(t *testing.T) {
	now := time.Unix(1700000000, 0)
	setClock(t, now)
	loadTestKeys(t)

	token, err := Sign(RS256, testRSAKey, "", map[string]any{"sub": "user_1", "exp": 1, "custom": true},
		MaxAge(time.Minute), WithClaims(Claims{Issuer: "https://clerk.example.com"}))
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := Decode(token)
	if err != nil {
		t.Fatal(err)
	}

	if decoded.Header.Kid != "" {
		t.Fatalf("expected no kid header but got: %q", decoded.Header.Kid)
	}

	c := decoded.Claims
	if c.Subject != "user_1" || c.Issuer != "https://clerk.example.com" {
		t.Fatalf("unexpected claims: %+v", c)
	}

	if c.ExpiresAt() != now.Add(time.Minute) || c.IssuedAt.Time() != now {
		t.Fatalf("expected MaxAge to override exp and set iat: %+v", c)
	}

	var custom map[string]json.RawMessage
	if err = decoded.Unmarshal(&custom); err != nil || string(custom["custom"]) != "true" {
		t.Fatalf("expected custom claims to survive: %v, %s", err, custom["custom"])
	}

	if _, err = Sign(nil, testRSAKey, "", nil); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm but got: %v", err)
	}

	if _, err = Sign(RS256, testRSAKey, "", []string{"not", "an", "object"}, MaxAge(time.Minute)); err == nil {
		t.Fatalf("expected claims that are not an object to fail")
	}
}

func TestDecodeStructureErrorHidesToken(t *testing.T) {
	secret := Base64Encode([]byte(`{"sub":"user_secret_session"}`))

	for _, token := range []string{"a." + secret, "a." + secret + ".c.d", "." + secret + ".c2ln"} {
		_, err := Decode(token)
		if !errors.Is(err, ErrTokenStructure) {
			t.Fatalf("[%s] expected ErrTokenStructure but got: %v", token, err)
		}
		if strings.Contains(err.Error(), secret) {
			t.Fatalf("expected the error not to carry the token but got: %v", err)
		}
	}

	_, err := Decode("a.b.c.d")
	if err == nil || !strings.Contains(err.Error(), "got 4 segments") {
		t.Fatalf("expected the segment count in the error but got: %v", err)
	}
}
