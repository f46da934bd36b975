package core

import (
	"testing"
	"time"
)

func TestConversationBuffersWhileOpening(t *testing.T) {
	c := NewConversation()
	epoch := c.BeginOpen("p1")

	c.Append(Message{SenderID: "p1", Content: "live-1"})
	c.Append(Message{SenderID: "p1", Content: "live-2"})
	if c.Len() != 0 {
		t.Fatalf("live messages must buffer during the fetch, got log %+v", c.Messages())
	}

	if !c.ApplyHistory(epoch, []Message{{SenderID: "p1", Content: "old"}}) {
		t.Fatal("current epoch must apply")
	}
	got := c.Messages()
	if len(got) != 3 || got[0].Content != "old" || got[1].Content != "live-1" || got[2].Content != "live-2" {
		t.Fatalf("history must precede buffered events in arrival order: %+v", got)
	}
	if c.State() != ConversationOpen {
		t.Fatalf("expected open state, got %v", c.State())
	}
}

func TestConversationStaleEpochDiscarded(t *testing.T) {
	c := NewConversation()
	stale := c.BeginOpen("p1")
	c.BeginOpen("p2")

	if c.ApplyHistory(stale, []Message{{Content: "from p1"}}) {
		t.Fatal("stale epoch must not apply")
	}
	if c.PeerID() != "p2" || c.Len() != 0 {
		t.Fatalf("superseding open must win: peer=%q log=%+v", c.PeerID(), c.Messages())
	}
	if c.Abort(stale) {
		t.Fatal("stale abort must be ignored")
	}
}

func TestConversationAppendOnly(t *testing.T) {
	c := NewConversation()
	epoch := c.BeginOpen("p1")
	c.ApplyHistory(epoch, nil)

	for i := 0; i < 4; i++ {
		c.Append(Message{SenderID: "p1", Content: "m", CreatedAt: time.Now()})
	}
	if c.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", c.Len())
	}

	// Reopening is the only thing that replaces the log.
	c.BeginOpen("p1")
	if c.Len() != 0 {
		t.Fatal("reopen must reset the log")
	}
}

func TestConversationEchoReplacesByClientID(t *testing.T) {
	c := NewConversation()
	epoch := c.BeginOpen("p1")
	c.ApplyHistory(epoch, nil)

	c.Append(Message{SenderID: "me", Content: "hi", ClientID: "corr-1"})
	c.Append(Message{SenderID: "me", Content: "hi", ClientID: "corr-1", ID: "srv-9"})

	got := c.Messages()
	if len(got) != 1 {
		t.Fatalf("echo must replace, not append: %+v", got)
	}
	if got[0].ID != "srv-9" {
		t.Fatalf("replacement must carry the server id, got %+v", got[0])
	}

	// A different correlation id is a genuine new message.
	c.Append(Message{SenderID: "me", Content: "again", ClientID: "corr-2"})
	if c.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", c.Len())
	}
}

func TestTrackerExpiry(t *testing.T) {
	tr := NewTracker()
	deadline := time.Now().Add(time.Minute)

	tr.Set("p1", true, deadline)
	if !tr.IsTyping("p1") {
		t.Fatal("flag must be set")
	}

	// A refreshed deadline invalidates the old expiry.
	refreshed := deadline.Add(time.Second)
	tr.Set("p1", true, refreshed)
	if tr.Expire("p1", deadline) {
		t.Fatal("stale deadline must not clear the flag")
	}
	if !tr.IsTyping("p1") {
		t.Fatal("flag must survive a stale expiry")
	}

	if !tr.Expire("p1", refreshed) {
		t.Fatal("matching deadline must clear the flag")
	}
	if tr.IsTyping("p1") {
		t.Fatal("flag must be cleared")
	}

	tr.Set("p1", true, deadline)
	tr.Set("p1", false, time.Time{})
	if tr.IsTyping("p1") {
		t.Fatal("explicit false must clear the flag")
	}
}
