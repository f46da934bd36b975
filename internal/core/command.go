package core

import "time"

// commandKind describes what the run loop should do next. Local user
// actions and loop-internal completions travel the same queue so every
// mutation happens in arrival order on one goroutine.
type commandKind int

const (
	cmdOpenConversation commandKind = iota
	cmdCloseConversation
	cmdSendMessage
	cmdSetTyping
	cmdAcceptRequest
	cmdRejectRequest
	cmdRefreshFriends
	cmdSnapshot

	// Completions of asynchronous collaborator calls re-enter the loop
	// as commands instead of mutating state from their goroutines.
	cmdHistoryResult
	cmdFriendsResult
	cmdAcceptResult
	cmdTypingExpired
)

type command struct {
	kind commandKind

	peerID    string
	text      string
	typing    bool
	requestID string

	// history fetch completion
	epoch   uint64
	history []Message

	// friends fetch completion
	friends  []Friend
	requests []FriendRequest

	err      error
	deadline time.Time

	reply chan Snapshot
}
