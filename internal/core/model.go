package core

import "time"

// User is the authenticated session identity. Immutable for the
// session lifetime.
type User struct {
	ID    string
	Name  string
	Token string
}

// Friend is one entry of the friend directory.
type Friend struct {
	ID       string
	Name     string
	IsOnline bool
	// Notifications counts unread messages from this friend. Never negative.
	Notifications int
}

// FriendRequest is a pending incoming request.
type FriendRequest struct {
	ID   string
	Name string
}

// Message is one entry of the conversation log.
// ClientID is set on locally originated messages so a later server echo
// can be matched against the optimistic copy instead of double-appending.
type Message struct {
	ID        string
	SenderID  string
	Content   string
	CreatedAt time.Time
	ClientID  string
}
