// Package core reconciles the locally held conversation and friends
// state against the asynchronous stream of server events while the user
// issues actions concurrently. All mutable state is owned by a single
// run loop; actions, inbound events, and fetch completions are queued
// into it so no two mutations ever race.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/channel"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/sound"
)

// API is the request/response collaborator surface the core needs.
// Implemented by the HTTP client; tests substitute fakes.
type API interface {
	Friends(ctx context.Context) ([]Friend, []FriendRequest, error)
	Conversation(ctx context.Context, friendID string) ([]Message, int, error)
	AcceptFriend(ctx context.Context, friendID string) error
}

// Options tunes core behaviour.
type Options struct {
	// TypingExpiry bounds how long a peer's typing flag stays set
	// without a refresh event. Zero disables the auto-clear.
	TypingExpiry time.Duration
}

// Core is the single authority over the friend directory, conversation
// store and typing tracker.
type Core struct {
	log   *zerolog.Logger
	ch    channel.Channel
	api   API
	sound sound.Player
	self  User
	opts  Options

	commands chan command
	inbound  chan inboundFrame
	updates  chan Update
	done     chan struct{}

	// Loop-owned state. Touched only from Run's goroutine.
	friends *Directory
	conv    *Conversation
	typing  *Tracker
	runCtx  context.Context
}

type inboundFrame struct {
	event string
	data  json.RawMessage
}

// New wires a core around its collaborators. Run must be called before
// the core does anything.
func New(self User, ch channel.Channel, apiClient API, player sound.Player, opts Options, logger *zerolog.Logger) *Core {
	if player == nil {
		player = sound.Mute{}
	}
	return &Core{
		log:      logger,
		ch:       ch,
		api:      apiClient,
		sound:    player,
		self:     self,
		opts:     opts,
		commands: make(chan command, 64),
		inbound:  make(chan inboundFrame, 64),
		updates:  make(chan Update, 64),
		done:     make(chan struct{}),
		friends:  NewDirectory(),
		conv:     NewConversation(),
		typing:   NewTracker(),
	}
}

// Updates is the read-model stream for the presentation layer.
// Slow consumers lose intermediate updates, never consistency: every
// Update carries full copies of what it describes.
func (c *Core) Updates() <-chan Update {
	return c.updates
}

// Run subscribes to the event channel, announces presence, and processes
// actions and events until ctx is cancelled.
func (c *Core) Run(ctx context.Context) error {
	defer close(c.done)
	c.runCtx = ctx

	subs, err := c.subscribeAll()
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()

	if err := c.ch.Emit(ctx, proto.EventUserConnected, proto.UserConnectedData{
		UserID:   c.self.ID,
		IsOnline: true,
	}); err != nil {
		return err
	}

	c.startFriendsRefresh()

	for {
		select {
		case cmd := <-c.commands:
			c.handleCommand(cmd)
		case frame := <-c.inbound:
			c.handleInbound(frame)
		case <-ctx.Done():
			c.announceDisconnect()
			return nil
		}
	}
}

// OpenConversation selects a peer: clears its unread counter, starts the
// history fetch and accepts live events for it meanwhile. Idempotent
// beyond the re-fetch.
func (c *Core) OpenConversation(friendID string) {
	c.enqueue(command{kind: cmdOpenConversation, peerID: friendID})
}

// CloseConversation deselects the current peer.
func (c *Core) CloseConversation() {
	c.enqueue(command{kind: cmdCloseConversation})
}

// SendMessage emits the message and appends it optimistically. Blank
// text (after trimming) is silently discarded at this boundary.
func (c *Core) SendMessage(text string) {
	c.enqueue(command{kind: cmdSendMessage, text: text})
}

// SetTyping emits the outbound typing indicator for the open peer.
func (c *Core) SetTyping(typing bool) {
	c.enqueue(command{kind: cmdSetTyping, typing: typing})
}

// AcceptRequest confirms a pending friend request: server call first,
// then local removal, accept-friend emit and a directory re-fetch.
func (c *Core) AcceptRequest(requestID string) {
	c.enqueue(command{kind: cmdAcceptRequest, requestID: requestID})
}

// RejectRequest dismisses a pending request locally. The requester is
// not notified.
func (c *Core) RejectRequest(requestID string) {
	c.enqueue(command{kind: cmdRejectRequest, requestID: requestID})
}

// RefreshFriends forces a directory re-fetch.
func (c *Core) RefreshFriends() {
	c.enqueue(command{kind: cmdRefreshFriends})
}

// Snapshot returns the full read model. The request is serialized
// through the run loop, so it also acts as a write barrier.
func (c *Core) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.commands <- command{kind: cmdSnapshot, reply: reply}:
	case <-c.done:
		return Snapshot{}, errors.New("core stopped")
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-c.done:
		return Snapshot{}, errors.New("core stopped")
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (c *Core) enqueue(cmd command) {
	select {
	case c.commands <- cmd:
	case <-c.done:
	}
}

func (c *Core) subscribeAll() ([]channel.Subscription, error) {
	handlers := []struct {
		event string
	}{
		{proto.EventNewMessage},
		{proto.EventUserTyping},
		{proto.EventUserOffline},
		{proto.EventNewFriendRequest},
	}

	subs := make([]channel.Subscription, 0, len(handlers))
	for _, h := range handlers {
		event := h.event
		sub, err := c.ch.Subscribe(event, func(data json.RawMessage) {
			select {
			case c.inbound <- inboundFrame{event: event, data: data}:
			case <-c.done:
			}
		})
		if err != nil {
			for _, s := range subs {
				s.Close()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (c *Core) announceDisconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.ch.Emit(ctx, proto.EventUserDisconnected, proto.UserDisconnectedData{UserID: c.self.ID}); err != nil {
		c.log.Warn().Err(err).Msg("emit user-disconnected")
	}
}

func (c *Core) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdOpenConversation:
		c.openConversation(cmd.peerID)
	case cmdCloseConversation:
		c.conv.Close()
		c.typing.Reset()
	case cmdSendMessage:
		c.sendMessage(cmd.text)
	case cmdSetTyping:
		c.emitTyping(cmd.typing)
	case cmdAcceptRequest:
		c.startAccept(cmd.requestID)
	case cmdRejectRequest:
		if c.friends.RemoveRequest(cmd.requestID) {
			c.pushFriendsUpdate()
		}
	case cmdRefreshFriends:
		c.startFriendsRefresh()
	case cmdSnapshot:
		cmd.reply <- c.snapshot()

	case cmdHistoryResult:
		c.applyHistoryResult(cmd)
	case cmdFriendsResult:
		c.applyFriendsResult(cmd)
	case cmdAcceptResult:
		c.applyAcceptResult(cmd)
	case cmdTypingExpired:
		if c.typing.Expire(cmd.peerID, cmd.deadline) {
			c.pushTypingUpdate(cmd.peerID, false)
		}
	}
}

func (c *Core) handleInbound(frame inboundFrame) {
	switch frame.event {
	case proto.EventNewMessage:
		var data proto.NewMessageData
		if err := json.Unmarshal(frame.data, &data); err != nil {
			c.log.Warn().Err(err).Msg("decode new-message")
			return
		}
		c.onInboundMessage(Message{
			SenderID:  data.SenderID,
			Content:   data.Content,
			CreatedAt: data.CreatedAt,
			ClientID:  data.ClientID,
		})

	case proto.EventUserTyping:
		var data proto.UserTypingData
		if err := json.Unmarshal(frame.data, &data); err != nil {
			c.log.Warn().Err(err).Msg("decode user-typing")
			return
		}
		c.onTyping(data.SenderID, data.Typing)

	case proto.EventUserOffline:
		var data proto.UserOfflineData
		if err := json.Unmarshal(frame.data, &data); err != nil {
			c.log.Warn().Err(err).Msg("decode user-offline")
			return
		}
		if c.friends.SetOnline(data.UserID, false) {
			c.pushFriendsUpdate()
		}

	case proto.EventNewFriendRequest:
		c.startFriendsRefresh()
	}
}

func (c *Core) openConversation(friendID string) {
	if c.friends.ClearUnread(friendID) {
		c.pushFriendsUpdate()
	}
	c.typing.Reset()

	epoch := c.conv.BeginOpen(friendID)

	go func() {
		history, _, err := c.api.Conversation(c.runCtx, friendID)
		c.enqueue(command{
			kind:    cmdHistoryResult,
			peerID:  friendID,
			epoch:   epoch,
			history: history,
			err:     err,
		})
	}()
}

func (c *Core) applyHistoryResult(cmd command) {
	if cmd.err != nil {
		if c.conv.Abort(cmd.epoch) {
			c.pushError(cmd.err)
		} else {
			c.log.Debug().Str("peer_id", cmd.peerID).Msg("discarded stale failed history fetch")
		}
		return
	}
	if !c.conv.ApplyHistory(cmd.epoch, cmd.history) {
		c.log.Debug().Str("peer_id", cmd.peerID).Msg("discarded superseded history fetch")
		return
	}
	c.pushConversationUpdate(true)
}

func (c *Core) sendMessage(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	peerID := c.conv.PeerID()
	if peerID == "" {
		c.log.Debug().Msg("send without open conversation dropped")
		return
	}

	msg := Message{
		SenderID:  c.self.ID,
		Content:   text,
		CreatedAt: time.Now().UTC(),
		ClientID:  uuid.NewString(),
	}

	err := c.ch.Emit(c.runCtx, proto.EventSentMessage, proto.SentMessageData{
		Message:    msg.Content,
		Date:       msg.CreatedAt,
		SenderID:   msg.SenderID,
		ReceiverID: peerID,
		ClientID:   msg.ClientID,
	})
	if err != nil {
		// No partial mutation: nothing was appended yet.
		c.pushError(err)
		return
	}

	c.conv.Append(msg)
	c.sound.Play(sound.CueMessageSent)
	c.pushConversationUpdate(true)
}

func (c *Core) onInboundMessage(msg Message) {
	c.sound.Play(sound.CueMessageReceived)

	open := c.conv.State() != ConversationClosed
	forOpenPeer := open && (msg.SenderID == c.conv.PeerID() || msg.SenderID == c.self.ID)

	if forOpenPeer {
		c.conv.Append(msg)
		if c.conv.State() == ConversationOpen {
			c.pushConversationUpdate(true)
		}
		return
	}

	if msg.SenderID == c.self.ID {
		// Echo of our own message for a conversation we no longer hold.
		return
	}
	if c.friends.IncrementUnread(msg.SenderID) {
		c.pushFriendsUpdate()
	} else {
		c.log.Debug().Str("sender_id", msg.SenderID).Msg("message from unknown sender")
	}
}

func (c *Core) onTyping(senderID string, typing bool) {
	if c.conv.State() == ConversationClosed || senderID != c.conv.PeerID() {
		return
	}

	var deadline time.Time
	if typing && c.opts.TypingExpiry > 0 {
		deadline = time.Now().Add(c.opts.TypingExpiry)
		expires := deadline
		time.AfterFunc(c.opts.TypingExpiry, func() {
			c.enqueue(command{kind: cmdTypingExpired, peerID: senderID, deadline: expires})
		})
	}

	c.typing.Set(senderID, typing, deadline)
	c.pushTypingUpdate(senderID, typing)
}

func (c *Core) emitTyping(typing bool) {
	peerID := c.conv.PeerID()
	if peerID == "" {
		return
	}
	err := c.ch.Emit(c.runCtx, proto.EventTyping, proto.TypingData{
		Typing:     typing,
		SenderID:   c.self.ID,
		ReceiverID: peerID,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("emit typing")
	}
}

func (c *Core) startAccept(requestID string) {
	go func() {
		err := c.api.AcceptFriend(c.runCtx, requestID)
		c.enqueue(command{kind: cmdAcceptResult, requestID: requestID, err: err})
	}()
}

func (c *Core) applyAcceptResult(cmd command) {
	if cmd.err != nil {
		c.pushError(cmd.err)
		return
	}

	c.friends.RemoveRequest(cmd.requestID)
	if err := c.ch.Emit(c.runCtx, proto.EventAcceptFriend, proto.AcceptFriendData{ReceiverID: cmd.requestID}); err != nil {
		c.log.Warn().Err(err).Msg("emit accept-friend")
	}
	c.pushFriendsUpdate()
	c.startFriendsRefresh()
}

func (c *Core) startFriendsRefresh() {
	go func() {
		friends, requests, err := c.api.Friends(c.runCtx)
		c.enqueue(command{kind: cmdFriendsResult, friends: friends, requests: requests, err: err})
	}()
}

func (c *Core) applyFriendsResult(cmd command) {
	if cmd.err != nil {
		c.pushError(cmd.err)
		return
	}

	c.friends.Replace(cmd.friends, cmd.requests)
	// The open conversation is read; the server may still report stale
	// unread for it.
	if peerID := c.conv.PeerID(); peerID != "" {
		c.friends.ClearUnread(peerID)
	}
	c.pushFriendsUpdate()
}

func (c *Core) snapshot() Snapshot {
	return Snapshot{
		Friends:    c.friends.List(),
		Requests:   c.friends.Requests(),
		OpenPeerID: c.conv.PeerID(),
		State:      c.conv.State(),
		Messages:   c.conv.Messages(),
		PeerTyping: c.conv.PeerID() != "" && c.typing.IsTyping(c.conv.PeerID()),
	}
}

func (c *Core) pushFriendsUpdate() {
	c.pushUpdate(Update{
		Kind:     UpdateFriends,
		Friends:  c.friends.List(),
		Requests: c.friends.Requests(),
	})
}

func (c *Core) pushConversationUpdate(scroll bool) {
	c.pushUpdate(Update{
		Kind:     UpdateConversation,
		PeerID:   c.conv.PeerID(),
		Messages: c.conv.Messages(),
		Scroll:   scroll,
	})
}

func (c *Core) pushTypingUpdate(peerID string, typing bool) {
	c.pushUpdate(Update{Kind: UpdateTyping, PeerID: peerID, Typing: typing})
}

func (c *Core) pushError(err error) {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		c.pushUpdate(Update{Kind: UpdateError, Err: coreError(ErrCodeRejected, serverErr.Message)})
		return
	}
	c.pushUpdate(Update{Kind: UpdateError, Err: coreError(ErrCodeUnavailable, "An error occurred. Please try again.")})
}

func (c *Core) pushUpdate(u Update) {
	select {
	case c.updates <- u:
	default:
		// Drop if slow consumer; the next update carries fresh copies.
	}
}
