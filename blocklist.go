package jwt

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBlocked indicates that the token has not yet expired but its session
// was revoked through a Blocklist.
var ErrBlocked = errors.New("jwt: session is revoked")

// Blocklist is an in-memory set of revoked session IDs.
//
// Session tokens live for a minute and are verified without a network
// round trip, so a sign out reaches a verifier only when the client stops
// presenting the token. A Blocklist closes that window for the sessions a
// server revokes itself.
type Blocklist struct {
	entries map[string]int64 // key = session ID | value = expiration unix seconds (to remove expired).
	mu      sync.RWMutex
}

var _ TokenValidator = (*Blocklist)(nil)

// NewBlocklist returns a new up and running in-memory blocklist that
// removes expired entries every gcEvery. A good value is the session
// token lifetime.
func NewBlocklist(gcEvery time.Duration) *Blocklist {
	return NewBlocklistContext(context.Background(), gcEvery)
}

// NewBlocklistContext is NewBlocklist with a context that stops the
// garbage collector.
func NewBlocklistContext(ctx context.Context, gcEvery time.Duration) *Blocklist {
	b := &Blocklist{
		entries: make(map[string]int64),
	}

	if gcEvery > 0 {
		go b.runGC(ctx, gcEvery)
	}

	return b
}

// ValidateToken implements TokenValidator.
// Returns ErrBlocked if the session of t was revoked.
func (b *Blocklist) ValidateToken(t *DecodedToken) error {
	if b.Has(t.Claims.SessionID) {
		return ErrBlocked
	}

	return nil
}

// InvalidateToken revokes the session of a verified token until the
// token expires.
func (b *Blocklist) InvalidateToken(t *DecodedToken) {
	b.Revoke(t.Claims.SessionID, t.Claims.ExpiresAt())
}

// Revoke blocks sessionID until expiry.
func (b *Blocklist) Revoke(sessionID string, expiry time.Time) {
	if sessionID == "" {
		return
	}

	b.mu.Lock()
	b.entries[sessionID] = expiry.Unix()
	b.mu.Unlock()
}

// Del removes a session from the blocklist.
func (b *Blocklist) Del(sessionID string) {
	b.mu.Lock()
	delete(b.entries, sessionID)
	b.mu.Unlock()
}

// Count returns the number of revoked sessions.
func (b *Blocklist) Count() int {
	b.mu.RLock()
	n := len(b.entries)
	b.mu.RUnlock()

	return n
}

// Has reports whether sessionID is revoked.
func (b *Blocklist) Has(sessionID string) bool {
	if sessionID == "" {
		return false
	}

	b.mu.RLock()
	_, ok := b.entries[sessionID]
	b.mu.RUnlock()

	return ok
}

// GC removes the entries whose tokens have expired and returns how many
// it removed.
func (b *Blocklist) GC() int {
	now := Clock().Unix()

	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for sessionID, expiry := range b.entries {
		if now > expiry {
			delete(b.entries, sessionID)
			n++
		}
	}

	return n
}

func (b *Blocklist) runGC(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.GC()
		}
	}
}
