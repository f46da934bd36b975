package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/channel"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/sound"
)

// fakeChannel records emitted events and lets tests push server events
// into registered handlers, in order.
type fakeChannel struct {
	mu       sync.Mutex
	handlers map[string]channel.Handler
	emitted  map[string][]json.RawMessage
	emitErr  map[string]error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		handlers: make(map[string]channel.Handler),
		emitted:  make(map[string][]json.RawMessage),
		emitErr:  make(map[string]error),
	}
}

func (f *fakeChannel) Emit(_ context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.emitErr[event]; err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.emitted[event] = append(f.emitted[event], data)
	return nil
}

func (f *fakeChannel) Subscribe(event string, h channel.Handler) (channel.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.handlers[event]; exists {
		return nil, channel.ErrAlreadySubscribed
	}
	f.handlers[event] = h
	return fakeSubscription(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, event)
	}), nil
}

func (f *fakeChannel) Close() error { return nil }

// push delivers a server event to the subscribed handler.
func (f *fakeChannel) push(t *testing.T, event string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal push payload: %v", err)
	}

	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no handler for event %q", event)
	}
	h(data)
}

// emits returns the payloads emitted so far for one event name.
func (f *fakeChannel) emits(event string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.emitted[event]...)
}

func (f *fakeChannel) failEmit(event string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitErr[event] = err
}

type fakeSubscription func()

func (f fakeSubscription) Close() { f() }

// fakeAPI serves canned collaborator responses. Conversation fetches can
// be gated per peer to reproduce the fetch/live-event race.
type fakeAPI struct {
	mu sync.Mutex

	friends      []Friend
	requests     []FriendRequest
	friendsErr   error
	friendsCalls int

	conversations map[string][]Message
	convGates     map[string]chan struct{}
	convErr       error

	acceptErr   error
	acceptCalls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		conversations: make(map[string][]Message),
		convGates:     make(map[string]chan struct{}),
	}
}

func (f *fakeAPI) Friends(context.Context) ([]Friend, []FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.friendsCalls++
	if f.friendsErr != nil {
		return nil, nil, f.friendsErr
	}
	return append([]Friend(nil), f.friends...), append([]FriendRequest(nil), f.requests...), nil
}

func (f *fakeAPI) Conversation(_ context.Context, friendID string) ([]Message, int, error) {
	f.mu.Lock()
	gate := f.convGates[friendID]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.convErr != nil {
		return nil, 0, f.convErr
	}
	return append([]Message(nil), f.conversations[friendID]...), 0, nil
}

func (f *fakeAPI) AcceptFriend(_ context.Context, friendID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.acceptCalls = append(f.acceptCalls, friendID)
	return f.acceptErr
}

func (f *fakeAPI) setDirectory(friends []Friend, requests []FriendRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends = friends
	f.requests = requests
}

func (f *fakeAPI) setConversation(friendID string, msgs []Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations[friendID] = msgs
}

// gate makes history fetches for friendID block until the returned
// function is called.
func (f *fakeAPI) gate(friendID string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.convGates[friendID] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.convGates, friendID)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *fakeAPI) acceptCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acceptCalls)
}

func (f *fakeAPI) friendsCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friendsCalls
}

// cueCounter counts audible cues by kind.
type cueCounter struct {
	mu       sync.Mutex
	sent     int
	received int
}

func (c *cueCounter) Play(cue sound.Cue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch cue {
	case sound.CueMessageSent:
		c.sent++
	case sound.CueMessageReceived:
		c.received++
	}
}

func (c *cueCounter) counts() (sent, received int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.received
}

var testUser = User{ID: "me", Name: "alice", Token: "tok"}

// startTestCore runs a core against the fakes and stops it with the test.
func startTestCore(t *testing.T, ch *fakeChannel, apiClient *fakeAPI, opts Options) *Core {
	t.Helper()

	c := New(testUser, ch, apiClient, sound.Mute{}, opts, log.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := c.Run(ctx); err != nil {
			t.Errorf("core run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		waitStopped(t, c)
	})

	return c
}

func waitStopped(t *testing.T, c *Core) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("core did not stop")
	}
}

// waitSnapshot polls the read model until cond holds.
func waitSnapshot(t *testing.T, c *Core, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var last Snapshot
	for time.Now().Before(deadline) {
		snap, err := c.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if cond(snap) {
			return snap
		}
		last = snap
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last snapshot: %+v", what, last)
	return Snapshot{}
}
