package jwt

import (
	"context"
	"fmt"
)

// KeyResolver returns the JWK that verifies tokens whose header carries
// kid. The kid may be empty.
//
// *JWK, *JWKS, Keys and *JWKSClient implement it.
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*JWK, error)
}

// KeyResolverFunc is the function form of a KeyResolver.
type KeyResolverFunc func(ctx context.Context, kid string) (*JWK, error)

// ResolveKey implements KeyResolver.
func (fn KeyResolverFunc) ResolveKey(ctx context.Context, kid string) (*JWK, error) {
	return fn(ctx, kid)
}

// Keys maps key IDs to keys. Register every key once at startup; Keys is
// not safe for concurrent writes.
// Usage:
//
//	keys := make(jwt.Keys)
//	keys.Register(instanceKey)
//	keys.Register(rotatedKey)
//	token, err := jwt.Verify(ctx, raw, jwt.VerifyOptions{Key: keys})
type Keys map[string]*JWK

var (
	_ KeyResolver = Keys(nil)
	_ KeyResolver = (*JWK)(nil)
	_ KeyResolver = (*JWKS)(nil)
)

// Get returns the key registered under kid.
func (keys Keys) Get(kid string) (*JWK, bool) {
	k, ok := keys[kid]
	return k, ok
}

// Register adds key under its own "kid".
func (keys Keys) Register(key *JWK) {
	keys[key.Kid] = key
}

// ResolveKey implements KeyResolver.
func (keys Keys) ResolveKey(_ context.Context, kid string) (*JWK, error) {
	key, ok := keys.Get(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKidMismatch, kid)
	}

	return key, nil
}
