// Package api is the request/response collaborator of the client: a thin
// bearer-token HTTP wrapper around the chat backend. It holds no state
// beyond the session token; all reconciliation happens in core.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable is returned for transport-level failures. The caller
// surfaces it as a generic "try again" condition and keeps local state.
var ErrUnavailable = errors.New("an error occurred, please try again")

// ServerError carries the human-readable message from a rejected request
// (bad credentials, duplicate friend, ...). It is shown to the user verbatim.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Session identifies the logged-in user for the rest of the session.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Friend is one entry of the friends list as the server reports it.
type Friend struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsOnline      bool   `json:"isOnline"`
	Notifications int    `json:"notifications"`
}

// FriendRequest is a pending incoming request.
type FriendRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message is a persisted chat message.
type Message struct {
	ID        string    `json:"id,omitempty"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is a user search result.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FriendsResponse is the combined friends-and-requests payload.
type FriendsResponse struct {
	Friends  []Friend        `json:"friends"`
	Requests []FriendRequest `json:"requests"`
}

// ConversationResponse is the message history for one peer plus the
// unread count the server had accumulated for it.
type ConversationResponse struct {
	Messages      []Message `json:"messages"`
	Notifications int       `json:"notifications"`
}

// Client calls the chat backend. Safe for use from multiple goroutines
// once the token is set.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	log     *zerolog.Logger
}

// New builds an API client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// SetToken installs the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/login", body, &session); err != nil {
		return nil, err
	}
	c.token = session.Token
	return &session, nil
}

// Signup registers a new account and returns its session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp struct {
		User Session `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/signup", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.User.Token
	return &resp.User, nil
}

// Friends fetches the friends list and pending incoming requests.
func (c *Client) Friends(ctx context.Context, userID string) (*FriendsResponse, error) {
	body := map[string]string{"userId": userID}
	var resp FriendsResponse
	if err := c.do(ctx, http.MethodPost, "/friends", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Conversation fetches the message history with one friend.
func (c *Client) Conversation(ctx context.Context, userID, friendID string) (*ConversationResponse, error) {
	body := map[string]string{"userId": userID, "friendId": friendID}
	var resp ConversationResponse
	if err := c.do(ctx, http.MethodPost, "/getConversation", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindUsers searches users by name.
func (c *Client) FindUsers(ctx context.Context, userID, name string) ([]UserSummary, error) {
	body := map[string]string{"userId": userID, "name": name}
	var resp []UserSummary
	if err := c.do(ctx, http.MethodPost, "/find", body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AddFriend sends a friend request to another user.
func (c *Client) AddFriend(ctx context.Context, userID, friendID string) error {
	body := map[string]string{"userId": userID, "friendId": friendID}
	return c.do(ctx, http.MethodPost, "/addFriend", body, nil)
}

// AcceptFriend confirms a pending incoming request.
func (c *Client) AcceptFriend(ctx context.Context, friendID string) error {
	return c.do(ctx, http.MethodPost, "/acceptFriend/"+friendID, struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("api request failed")
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil && payload.Message != "" {
			return &ServerError{Message: payload.Message}
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("api request rejected without message")
		return ErrUnavailable
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("decode api response")
		return ErrUnavailable
	}
	return nil
}
