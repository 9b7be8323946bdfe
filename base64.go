package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrDecode is the kind of every DecodeError.
var ErrDecode = errors.New("jwt: base64 decode failed")

// DecodeError reports malformed base64 input.
type DecodeError struct {
	// Offset is the byte position of the first invalid character
	// in the normalized input, or -1 when the input length is invalid.
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("jwt: base64 decode failed at offset %d: %v", e.Offset, e.Err)
	}

	return fmt.Sprintf("jwt: base64 decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDecode) true for every *DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

var errEmptyInput = errors.New("empty input")

// DecodeBase64 decodes s written in either the standard or the URL safe
// alphabet, with or without "=" padding.
//
// The input is first normalized to the padded standard alphabet, the only
// form every platform primitive accepts, so a publishable key produced by
// btoa and a token segment produced by a base64url encoder go through the
// same decoder and yield the same bytes.
func DecodeBase64(s string) ([]byte, error) {
	normalized, err := normalizeBase64(s)
	if err != nil {
		return nil, err
	}

	b, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return nil, &DecodeError{Offset: int(corrupt), Err: err}
		}

		return nil, &DecodeError{Offset: -1, Err: err}
	}

	return b, nil
}

// DecodeSegment decodes one segment of a compact JWT.
// Unlike DecodeBase64 it rejects an empty segment: a token part must never
// decode silently to an empty buffer.
func DecodeSegment(seg string) ([]byte, error) {
	if seg == "" {
		return nil, &DecodeError{Offset: -1, Err: errEmptyInput}
	}

	return DecodeBase64(seg)
}

// Base64Encode encodes src to the JWT flavour of base64: URL alphabet,
// no trailing "=".
func Base64Encode(src []byte) string {
	return base64.RawURLEncoding.EncodeToString(src)
}

// base64StdEncode is the btoa equivalent used for publishable keys.
func base64StdEncode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func normalizeBase64(s string) (string, error) {
	s = strings.TrimRight(s, "=")

	var b strings.Builder
	b.Grow(len(s) + 3)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '-':
			b.WriteByte('+')
		case '_':
			b.WriteByte('/')
		case '+', '/':
			b.WriteByte(c)
		default:
			if !isBase64Alnum(c) {
				return "", &DecodeError{Offset: i, Err: base64.CorruptInputError(i)}
			}
			b.WriteByte(c)
		}
	}

	switch b.Len() % 4 {
	case 1:
		// a single trailing sextet can never encode a whole byte.
		return "", &DecodeError{Offset: -1, Err: fmt.Errorf("invalid length %d", b.Len())}
	case 2:
		b.WriteString("==")
	case 3:
		b.WriteString("=")
	}

	return b.String(), nil
}

func isBase64Alnum(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
