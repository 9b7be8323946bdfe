/*
Package jwt verifies Clerk session tokens locally and parses the keys that
identify a Clerk instance.

# Overview

A session token is a short lived JWT minted by the Frontend API and signed
with the instance key. A backend can verify it without calling any API:
given the instance public key, either the PEM encoded JWT key of the
dashboard (see LocalKey) or the JWKS served by the Backend API (see
JWKSClient), Verify checks the token structure, its header, its claims and
its signature, and returns the decoded token or a *VerificationError.

# Key Features

  - Publishable keys: ParsePublishableKey, DecodePublishableKey,
    IsPublishableKey, BuildPublishableKey and EncodePublishableKey.
  - Secret keys: InstanceTypeFromSecretKey.
  - Algorithms: RS256 (session tokens), RS384, RS512, PS256, PS384, PS512,
    ES256, ES384 and ES512. "none" is always rejected.
  - Pluggable cryptography: the Crypto interface, with a standard library
    backend (StdCrypto) and a github.com/lestrrat-go/jwx backend (JWXCrypto).
  - Remote keys: JWKSClient caches the key set, retries failed fetches with
    CallWithRetry and shares concurrent refreshes.
  - Reasons: every failure carries a Reason such as "token-expired" or
    "token-invalid-signature", the values the Frontend API uses.

# Quick Start

	package main

	import (
	    "context"
	    "errors"
	    "log"
	    "os"

	    "github.com/clerk/jwt"
	)

	func main() {
	    key, err := jwt.LocalKey(os.Getenv("CLERK_JWT_KEY"))
	    if err != nil {
	        log.Fatal(err)
	    }

	    verifier := jwt.NewVerifier(jwt.VerifyOptions{
	        Key:               key,
	        AuthorizedParties: []string{"https://example.com"},
	    })

	    token, err := verifier.Verify(context.Background(), sessionToken)
	    if errors.Is(err, jwt.ErrExpired) {
	        // ask the client for a fresh token.
	    }
	    if err != nil {
	        log.Fatal(err)
	    }

	    log.Printf("user %s, session %s", token.Claims.Subject, token.Claims.SessionID)
	}

Without a local key, resolve keys through the Backend API:

	keys, err := jwt.NewJWKSClient(os.Getenv("CLERK_SECRET_KEY"))
	if err != nil {
	    log.Fatal(err)
	}

	verifier := jwt.NewVerifier(jwt.VerifyOptions{Key: keys})

# Time

Claims are validated against the package level Clock, time.Now by default,
with a tolerance of DefaultClockSkew. Tests may replace Clock.
*/
package jwt
