package core

import "time"

// Tracker holds the transient per-peer typing flag. A set flag carries
// the deadline after which it auto-clears; a peer that navigates away
// without blurring would otherwise leave the indicator stuck.
type Tracker struct {
	deadlines map[string]time.Time
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{deadlines: make(map[string]time.Time)}
}

// Set records whether a peer is typing. deadline bounds how long the
// flag survives without a refresh; the zero time means no bound.
func (t *Tracker) Set(peerID string, typing bool, deadline time.Time) {
	if !typing {
		delete(t.deadlines, peerID)
		return
	}
	t.deadlines[peerID] = deadline
}

// IsTyping reports the current flag for a peer.
func (t *Tracker) IsTyping(peerID string) bool {
	_, ok := t.deadlines[peerID]
	return ok
}

// Expire clears the flag only if it still carries the given deadline.
// A refresh that arrived in between moves the deadline and wins.
func (t *Tracker) Expire(peerID string, deadline time.Time) bool {
	current, ok := t.deadlines[peerID]
	if !ok || !current.Equal(deadline) {
		return false
	}
	delete(t.deadlines, peerID)
	return true
}

// Reset drops all flags. Called when the open conversation changes.
func (t *Tracker) Reset() {
	clear(t.deadlines)
}
