package core

// ConversationState tracks the lifecycle of the open conversation.
type ConversationState int

const (
	// ConversationClosed means no peer is selected.
	ConversationClosed ConversationState = iota
	// ConversationOpening means the history fetch is still in flight.
	// Live messages for the peer buffer until it completes.
	ConversationOpening
	// ConversationOpen means history is loaded and appends go straight
	// to the log.
	ConversationOpen
)

// Conversation holds the append-only message log for the currently
// selected peer. Only one conversation is held at a time; switching
// peers discards the log and reloads it. Mutated only by the run loop.
type Conversation struct {
	state  ConversationState
	peerID string
	// epoch identifies the in-flight history fetch. A result carrying a
	// stale epoch belongs to a superseded open and is discarded.
	epoch   uint64
	log     []Message
	pending []Message
}

// NewConversation constructs a closed conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// State returns the lifecycle state.
func (c *Conversation) State() ConversationState { return c.state }

// PeerID returns the selected peer, or "" when closed.
func (c *Conversation) PeerID() string { return c.peerID }

// Messages returns a copy of the log in arrival order.
func (c *Conversation) Messages() []Message {
	return append([]Message(nil), c.log...)
}

// Len returns the current log length.
func (c *Conversation) Len() int { return len(c.log) }

// BeginOpen selects a peer and starts a new fetch epoch. Any previous
// log and buffer are dropped; the returned epoch tags the fetch.
func (c *Conversation) BeginOpen(peerID string) uint64 {
	c.state = ConversationOpening
	c.peerID = peerID
	c.epoch++
	c.log = nil
	c.pending = nil
	return c.epoch
}

// ApplyHistory installs the fetched history followed by any live
// messages buffered while the fetch was in flight, in arrival order.
// Returns false when epoch is stale (the open was superseded).
func (c *Conversation) ApplyHistory(epoch uint64, history []Message) bool {
	if epoch != c.epoch || c.state != ConversationOpening {
		return false
	}
	c.log = append(append([]Message(nil), history...), c.pending...)
	c.pending = nil
	c.state = ConversationOpen
	return true
}

// Abort returns to the closed state after a failed fetch. Stale epochs
// are ignored.
func (c *Conversation) Abort(epoch uint64) bool {
	if epoch != c.epoch || c.state != ConversationOpening {
		return false
	}
	c.Close()
	return true
}

// Append adds a message to the log, or buffers it while opening.
// An echo carrying the ClientID of an already-held optimistic message
// replaces that entry in place instead of appending again.
func (c *Conversation) Append(msg Message) {
	if msg.ClientID != "" && c.replaceByClientID(msg) {
		return
	}
	if c.state == ConversationOpening {
		c.pending = append(c.pending, msg)
		return
	}
	c.log = append(c.log, msg)
}

// Close deselects the peer and drops the log.
func (c *Conversation) Close() {
	c.state = ConversationClosed
	c.peerID = ""
	c.log = nil
	c.pending = nil
}

func (c *Conversation) replaceByClientID(msg Message) bool {
	for i := range c.log {
		if c.log[i].ClientID == msg.ClientID {
			c.log[i] = msg
			return true
		}
	}
	for i := range c.pending {
		if c.pending[i].ClientID == msg.ClientID {
			c.pending[i] = msg
			return true
		}
	}
	return false
}
