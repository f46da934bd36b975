package store

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned when no saved session exists.
var ErrNoSession = errors.New("no saved session")

// Session is the locally persisted login: who we are and the opaque
// token the API expects. One row at most; logout clears it.
type Session struct {
	UserID    string
	Name      string
	Token     string
	CreatedAt time.Time
}

// Store persists the session between runs of the client.
type Store interface {
	SaveSession(ctx context.Context, s Session) error
	LoadSession(ctx context.Context) (*Session, error)
	ClearSession(ctx context.Context) error
	Close() error
}
