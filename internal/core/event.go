package core

// UpdateKind names what part of the read model changed.
type UpdateKind int

const (
	// UpdateFriends signals that the friends list or request set changed.
	UpdateFriends UpdateKind = iota
	// UpdateConversation signals that the open conversation log changed.
	UpdateConversation
	// UpdateTyping signals a typing indicator change for the open peer.
	UpdateTyping
	// UpdateError surfaces a non-fatal failure to the presentation layer.
	UpdateError
)

// Update is pushed to the presentation layer after a state change.
// It carries copies; the receiver never holds a mutable store handle.
type Update struct {
	Kind UpdateKind

	Friends  []Friend
	Requests []FriendRequest

	PeerID   string
	Messages []Message
	// Scroll asks the presentation layer to jump to the latest message.
	Scroll bool

	Typing bool

	Err *CoreError
}

// Snapshot is the full read model, produced on demand through the run
// loop so reads never race writes.
type Snapshot struct {
	Friends  []Friend
	Requests []FriendRequest

	OpenPeerID string
	State      ConversationState
	Messages   []Message
	PeerTyping bool
}
