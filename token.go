package jwt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Header is the JOSE header of a token.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ,omitempty"`
	Kid string `json:"kid,omitempty"`
}

// DecodedToken holds the decoded parts of a compact JWT.
//
// A DecodedToken returned by Decode is not verified: its claims must not
// be trusted. One returned by Verify has passed every check.
type DecodedToken struct {
	// Header is the decoded JOSE header.
	Header Header
	// Payload is the decoded payload, a JSON object.
	Payload []byte
	// Claims are the session claims parsed out of Payload.
	Claims SessionClaims
	// Signature is the decoded signature.
	Signature []byte
	// Raw is the token as it was passed to Decode.
	Raw string

	// signed is the "header.payload" part of Raw, the input of the
	// signature.
	signed []byte
}

// Unmarshal decodes the payload into dest, to read claims that
// SessionClaims does not carry, e.g. the custom claims of a JWT template.
func (t *DecodedToken) Unmarshal(dest any) error {
	return json.Unmarshal(t.Payload, dest)
}

// Decode splits a compact JWT into its parts and decodes them without
// verifying anything but their shape:
//
//   - exactly three non-empty, "." separated segments (ErrTokenStructure),
//     except for an unsecured "header.payload." token (ErrUnsupportedAlgorithm),
//   - base64url segments, a JSON object header and payload (ErrMalformedToken),
//   - a non-empty "alg" header (ErrUnsupportedAlgorithm).
//
// Use Verify to check the signature and claims.
func Decode(token string) (*DecodedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] == "" && isUnsecured(parts[0]) {
		return nil, fmt.Errorf("%w: unsecured tokens are never accepted", ErrUnsupportedAlgorithm)
	}

	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		// the token itself is a credential, it never goes in the error.
		return nil, fmt.Errorf("%w: expected three non-empty segments, got %d segments of lengths %v",
			ErrTokenStructure, len(parts), segmentLengths(parts))
	}

	headerJSON, err := DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedToken, err)
	}

	var header Header
	if err = unmarshalObject(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}

	if header.Alg == "" {
		return nil, fmt.Errorf("%w: missing alg header", ErrUnsupportedAlgorithm)
	}

	payload, err := DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrMalformedToken, err)
	}

	var claims SessionClaims
	if err = unmarshalObject(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	signature, err := DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrMalformedToken, err)
	}

	return &DecodedToken{
		Header:    header,
		Payload:   payload,
		Claims:    claims,
		Signature: signature,
		Raw:       token,
		signed:    []byte(parts[0] + "." + parts[1]),
	}, nil
}

// isUnsecured reports whether the encoded header declares "alg":"none",
// the header of an unsecured JWT ("header.payload.").
func isUnsecured(encodedHeader string) bool {
	headerJSON, err := DecodeSegment(encodedHeader)
	if err != nil {
		return false
	}

	var header Header
	if err = unmarshalObject(headerJSON, &header); err != nil {
		return false
	}

	return isNoneAlg(header.Alg)
}

func segmentLengths(parts []string) []int {
	lengths := make([]int, len(parts))
	for i, part := range parts {
		lengths[i] = len(part)
	}

	return lengths
}

// unmarshalObject is json.Unmarshal restricted to JSON objects: a header
// or payload of "null", "1" or "[]" is malformed.
func unmarshalObject(b []byte, dest any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if raw == nil {
		return fmt.Errorf("not a JSON object")
	}

	return json.Unmarshal(b, dest)
}

// encodeToken signs claims with key and returns the compact token.
func encodeToken(alg Alg, key PrivateKey, header Header, claims any) (string, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("encodeToken: header: %w", err)
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encodeToken: payload: %w", err)
	}

	headerPayload := Base64Encode(headerJSON) + "." + Base64Encode(payload)

	signature, err := alg.Sign(key, []byte(headerPayload))
	if err != nil {
		return "", fmt.Errorf("encodeToken: signature: %w", err)
	}

	// header.payload.signature
	return headerPayload + "." + Base64Encode(signature), nil
}
