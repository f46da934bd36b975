package proto

import (
	"encoding/json"
	"time"
)

// Frame is the envelope for every message on the socket, both directions.
// Event names the stream, Data carries the event-specific payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Server -> client event names.
const (
	EventNewMessage       = "new-message"
	EventUserTyping       = "user-typing"
	EventUserOffline      = "user-offline"
	EventNewFriendRequest = "new-friend-request"
)

// Client -> server event names.
const (
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
	EventTyping           = "typing"
	EventSentMessage      = "sent-message"
	EventAcceptFriend     = "accept-friend"
)

// NewMessageData is a message pushed by the server.
type NewMessageData struct {
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ClientID  string    `json:"clientId,omitempty"`
}

// UserTypingData signals that a peer started or stopped typing.
type UserTypingData struct {
	SenderID string `json:"senderId"`
	Typing   bool   `json:"typing"`
}

// UserOfflineData signals that a user went offline.
type UserOfflineData struct {
	UserID string `json:"userId"`
}

// UserConnectedData announces this client's presence after connecting.
type UserConnectedData struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// UserDisconnectedData announces a deliberate logout.
type UserDisconnectedData struct {
	UserID string `json:"userId"`
}

// TypingData is the outbound typing indicator.
type TypingData struct {
	Typing     bool   `json:"typing"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// SentMessageData is an outbound chat message.
// ClientID correlates the optimistic local copy with the server echo.
type SentMessageData struct {
	Message    string    `json:"message"`
	Date       time.Time `json:"date"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	ClientID   string    `json:"clientId,omitempty"`
}

// AcceptFriendData notifies the requester that their request was accepted.
type AcceptFriendData struct {
	ReceiverID string `json:"receiverId"`
}

// NewFrame marshals payload into a Frame for the given event name.
func NewFrame(event string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: data}, nil
}
