// Package session keeps a short, bounded conversation history per client.
package session

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	DefaultCapacity = 10
	DefaultTTL      = time.Hour
)

// Turn is one user message paired with the reply it received.
type Turn struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Timestamp     time.Time `json:"timestamp"`
}

type Session struct {
	ID         string
	History    []Turn
	LastAccess time.Time
}

// Store is implemented by the in-memory store and the redis store.
//
// Callers Touch the current session before SweepExpired so a session that is
// in use is never swept by its own request.
type Store interface {
	Touch(ctx context.Context, id string) error
	SweepExpired(ctx context.Context) (int, error)
	Append(ctx context.Context, id string, turn Turn) error
	History(ctx context.Context, id string) ([]Turn, error)
}

// DeriveKey groups requests from the same bearer token and user agent.
func DeriveKey(authHeader, userAgent string) string {
	sum := blake2b.Sum256([]byte(authHeader + "\x00" + userAgent))
	return hex.EncodeToString(sum[:16])
}
