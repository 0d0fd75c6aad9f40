package gateway

import (
	"context"
	"testing"

	chatmodel "sparrow/module/chat/model"
	"sparrow/tools/errs"
)

func activityFixture(t *testing.T) (*fakeStore, *Registry, *ActivityTracker) {
	t.Helper()
	st := newFakeStore()
	reg := NewRegistry(st, nil)
	return st, reg, NewActivityTracker(st, reg)
}

func TestOpenMarksSeenAndNotifiesPeer(t *testing.T) {
	ctx := context.Background()
	st, reg, tr := activityFixture(t)
	st.addConversation(&chatmodel.Conversation{ConversationID: "c1", User1: "alice", User2: "bob"})
	st.addMessage(&chatmodel.Message{MessageID: "m1", ConversationID: "c1", SenderID: "bob", ReceiverID: "alice"})
	st.addMessage(&chatmodel.Message{MessageID: "m2", ConversationID: "c1", SenderID: "bob", ReceiverID: "alice"})
	st.addMessage(&chatmodel.Message{MessageID: "m3", ConversationID: "c1", SenderID: "alice", ReceiverID: "bob"})

	bob := newFakeSession("cb")
	if err := reg.Connect(ctx, "bob", bob); err != nil {
		t.Fatalf("connect bob: %v", err)
	}

	if err := tr.Open(ctx, "c1", "alice"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if !st.conv("c1").OpenFor("alice") {
		t.Fatal("alice's flag not set")
	}
	for _, m := range st.msgs {
		switch m.ReceiverID {
		case "alice":
			if !m.Seen {
				t.Fatalf("message %s to alice still unseen", m.MessageID)
			}
		case "bob":
			if m.Seen {
				t.Fatalf("message %s to bob was touched", m.MessageID)
			}
		}
	}

	evs := bob.named(EvStatusOfContact)
	if len(evs) != 1 {
		t.Fatalf("peer status events = %d, want 1", len(evs))
	}
	status := evs[0].Data.(ContactStatus)
	if !status.InConversation || status.IsLeaved || status.ConversationID != "c1" {
		t.Fatalf("bad status: %+v", status)
	}
}

func TestCloseNotifiesPeer(t *testing.T) {
	ctx := context.Background()
	st, reg, tr := activityFixture(t)
	st.addConversation(&chatmodel.Conversation{
		ConversationID: "c1", User1: "alice", User2: "bob",
		OpenFlags: map[string]bool{"alice": true, "bob": false},
	})

	bob := newFakeSession("cb")
	if err := reg.Connect(ctx, "bob", bob); err != nil {
		t.Fatalf("connect bob: %v", err)
	}

	if err := tr.Close(ctx, "c1", "alice"); err != nil {
		t.Fatalf("close: %v", err)
	}

	if st.conv("c1").OpenFor("alice") {
		t.Fatal("alice's flag still open")
	}
	evs := bob.named(EvStatusOfContact)
	if len(evs) != 1 {
		t.Fatalf("peer status events = %d, want 1", len(evs))
	}
	status := evs[0].Data.(ContactStatus)
	if status.InConversation || status.IsLeaved {
		t.Fatalf("bad status: %+v", status)
	}
}

func TestOpenMissingConversation(t *testing.T) {
	_, _, tr := activityFixture(t)
	err := tr.Open(context.Background(), "nope", "alice")
	if err == nil || !errs.ErrConversationNotFound.Is(err) {
		t.Fatalf("err = %v, want conversation not found", err)
	}
}

func TestCloseOnDisconnectClosesExactlyTheActiveOne(t *testing.T) {
	ctx := context.Background()
	st, reg, tr := activityFixture(t)
	st.addConversation(&chatmodel.Conversation{
		ConversationID: "c1", User1: "alice", User2: "bob",
		OpenFlags: map[string]bool{"alice": true, "bob": true},
	})
	st.addConversation(&chatmodel.Conversation{
		ConversationID: "c2", User1: "alice", User2: "carol",
		OpenFlags: map[string]bool{"alice": false, "carol": true},
	})

	bob := newFakeSession("cb")
	if err := reg.Connect(ctx, "bob", bob); err != nil {
		t.Fatalf("connect bob: %v", err)
	}

	if err := tr.CloseOnDisconnect(ctx, "alice"); err != nil {
		t.Fatalf("close on disconnect: %v", err)
	}

	if st.conv("c1").OpenFor("alice") {
		t.Fatal("active conversation not closed")
	}
	// nobody else's flags move
	if !st.conv("c1").OpenFor("bob") {
		t.Fatal("bob's flag changed")
	}
	if !st.conv("c2").OpenFor("carol") {
		t.Fatal("carol's flag changed")
	}
	if len(bob.named(EvStatusOfContact)) != 1 {
		t.Fatal("peer not notified")
	}
}

func TestCloseOnDisconnectWithoutActiveConversation(t *testing.T) {
	_, _, tr := activityFixture(t)
	if err := tr.CloseOnDisconnect(context.Background(), "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
