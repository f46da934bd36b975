// Package app wires the session store, API client, event channel and
// reconciliation core into one client application.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/channel"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/sound"
	"github.com/vovakirdan/wirechat-client/internal/store"
	"github.com/vovakirdan/wirechat-client/internal/store/sqlite"
)

// ErrNotLoggedIn is returned by Connect without a restored or fresh login.
var ErrNotLoggedIn = errors.New("not logged in")

// App owns the client's collaborators and lifecycle.
type App struct {
	cfg config.Config
	log *zerolog.Logger

	api   *api.Client
	store store.Store

	self core.User
	sock *channel.Socket
	core *core.Core

	runErr chan error
}

// New opens the session store and builds the API client.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	return &App{
		cfg:    cfg,
		log:    logger,
		api:    api.New(cfg.ServerURL, cfg.RequestTimeout, logger),
		store:  st,
		runErr: make(chan error, 1),
	}, nil
}

// Restore loads a previously saved session. Expired tokens are cleared.
func (a *App) Restore(ctx context.Context) (core.User, bool) {
	sess, err := a.store.LoadSession(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNoSession) {
			a.log.Warn().Err(err).Msg("load session")
		}
		return core.User{}, false
	}

	if auth.Expired(sess.Token, time.Now()) {
		a.log.Info().Str("user_id", sess.UserID).Msg("saved session expired")
		if err := a.store.ClearSession(ctx); err != nil {
			a.log.Warn().Err(err).Msg("clear expired session")
		}
		return core.User{}, false
	}

	a.self = core.User{ID: sess.UserID, Name: sess.Name, Token: sess.Token}
	a.api.SetToken(sess.Token)
	return a.self, true
}

// Login authenticates and persists the session.
func (a *App) Login(ctx context.Context, email, password string) (core.User, error) {
	sess, err := a.api.Login(ctx, email, password)
	if err != nil {
		return core.User{}, err
	}
	return a.adoptSession(ctx, sess)
}

// Signup registers a new account and persists its session.
func (a *App) Signup(ctx context.Context, name, email, password string) (core.User, error) {
	sess, err := a.api.Signup(ctx, name, email, password)
	if err != nil {
		return core.User{}, err
	}
	return a.adoptSession(ctx, sess)
}

// Logout clears the persisted session.
func (a *App) Logout(ctx context.Context) error {
	a.self = core.User{}
	return a.store.ClearSession(ctx)
}

// Connect dials the event channel and starts the reconciliation core.
// The core stops when ctx is cancelled; Err reports how it went.
func (a *App) Connect(ctx context.Context) error {
	if a.self.ID == "" {
		return ErrNotLoggedIn
	}

	sock, err := channel.Dial(ctx, a.cfg.SocketURL, a.log)
	if err != nil {
		return fmt.Errorf("dial event channel: %w", err)
	}
	a.sock = sock

	a.core = core.New(
		a.self,
		sock,
		&coreAPI{client: a.api, userID: a.self.ID},
		sound.NewBell(),
		core.Options{TypingExpiry: a.cfg.TypingExpiry},
		a.log,
	)

	go func() {
		a.runErr <- a.core.Run(ctx)
	}()
	return nil
}

// Err blocks until the core run loop has stopped.
func (a *App) Err() error {
	return <-a.runErr
}

// Core returns the running reconciliation core. Nil before Connect.
func (a *App) Core() *core.Core { return a.core }

// API returns the collaborator client for calls the core does not own
// (user search, sending friend requests).
func (a *App) API() *api.Client { return a.api }

// Self returns the session identity.
func (a *App) Self() core.User { return a.self }

// Close releases the socket and the session store.
func (a *App) Close() {
	if a.sock != nil {
		if err := a.sock.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close event channel")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close session store")
	}
}

func (a *App) adoptSession(ctx context.Context, sess *api.Session) (core.User, error) {
	a.self = core.User{ID: sess.ID, Name: sess.Name, Token: sess.Token}
	a.api.SetToken(sess.Token)

	err := a.store.SaveSession(ctx, store.Session{
		UserID: sess.ID,
		Name:   sess.Name,
		Token:  sess.Token,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("persist session")
	}
	return a.self, nil
}

// coreAPI adapts the HTTP client to the collaborator surface the core
// consumes, converting wire DTOs into domain types.
type coreAPI struct {
	client *api.Client
	userID string
}

func (c *coreAPI) Friends(ctx context.Context) ([]core.Friend, []core.FriendRequest, error) {
	resp, err := c.client.Friends(ctx, c.userID)
	if err != nil {
		return nil, nil, err
	}

	friends := make([]core.Friend, 0, len(resp.Friends))
	for _, f := range resp.Friends {
		friends = append(friends, core.Friend{
			ID:            f.ID,
			Name:          f.Name,
			IsOnline:      f.IsOnline,
			Notifications: f.Notifications,
		})
	}
	requests := make([]core.FriendRequest, 0, len(resp.Requests))
	for _, r := range resp.Requests {
		requests = append(requests, core.FriendRequest{ID: r.ID, Name: r.Name})
	}
	return friends, requests, nil
}

func (c *coreAPI) Conversation(ctx context.Context, friendID string) ([]core.Message, int, error) {
	resp, err := c.client.Conversation(ctx, c.userID, friendID)
	if err != nil {
		return nil, 0, err
	}

	messages := make([]core.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, core.Message{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return messages, resp.Notifications, nil
}

func (c *coreAPI) AcceptFriend(ctx context.Context, friendID string) error {
	return c.client.AcceptFriend(ctx, friendID)
}
