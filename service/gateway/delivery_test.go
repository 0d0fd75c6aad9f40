package gateway

import (
	"context"
	"errors"
	"testing"

	chatmodel "sparrow/module/chat/model"
)

func deliveryFixture(t *testing.T) (*fakeStore, *Registry, *DeliveryEngine) {
	t.Helper()
	st := newFakeStore()
	reg := NewRegistry(st, nil)
	return st, reg, NewDeliveryEngine(st, reg)
}

func TestSendSeenWhenReceiverHasChatOpen(t *testing.T) {
	ctx := context.Background()
	st, reg, eng := deliveryFixture(t)
	st.addConversation(&chatmodel.Conversation{
		ConversationID: "c1", User1: "alice", User2: "bob",
		OpenFlags: map[string]bool{"alice": false, "bob": true},
	})
	bob := newFakeSession("cb")
	if err := reg.Connect(ctx, "bob", bob); err != nil {
		t.Fatalf("connect: %v", err)
	}

	msg, err := eng.Send(ctx, &MsgSendPayload{
		ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Text: "hi",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg == nil || !msg.Seen {
		t.Fatalf("message = %+v, want seen=true", msg)
	}

	evs := bob.named(EvMsgReceive)
	if len(evs) != 1 {
		t.Fatalf("receiver pushes = %d, want 1", len(evs))
	}
	pushed := evs[0].Data.(*chatmodel.Message)
	if !pushed.Seen || pushed.Text != "hi" {
		t.Fatalf("pushed message = %+v", pushed)
	}
}

func TestSendUnseenWhenReceiverChatClosed(t *testing.T) {
	ctx := context.Background()
	st, _, eng := deliveryFixture(t)
	st.addConversation(&chatmodel.Conversation{ConversationID: "c1", User1: "alice", User2: "bob"})

	msg, err := eng.Send(ctx, &MsgSendPayload{
		ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Text: "hi",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Seen {
		t.Fatal("message born seen with receiver's chat closed")
	}
	if st.messageCount() != 1 {
		t.Fatalf("stored = %d, want 1", st.messageCount())
	}
}

func TestSendMissingConversationReportsToSender(t *testing.T) {
	ctx := context.Background()
	st, reg, eng := deliveryFixture(t)
	alice := newFakeSession("ca")
	if err := reg.Connect(ctx, "alice", alice); err != nil {
		t.Fatalf("connect: %v", err)
	}

	msg, err := eng.Send(ctx, &MsgSendPayload{
		ConversationID: "ghost", SenderID: "alice", ReceiverID: "bob", Text: "hi",
	})
	if err != nil {
		t.Fatalf("missing conversation must not be an error, got %v", err)
	}
	if msg != nil {
		t.Fatalf("message = %+v, want nil", msg)
	}
	if st.messageCount() != 0 {
		t.Fatal("message persisted for missing conversation")
	}

	evs := alice.named(EvStatusOfContact)
	if len(evs) != 1 {
		t.Fatalf("sender status events = %d, want 1", len(evs))
	}
	status := evs[0].Data.(ContactStatus)
	if status.InConversation || !status.IsLeaved || status.ConversationID != "ghost" {
		t.Fatalf("bad status: %+v", status)
	}
}

func TestSendInsertFailureAbortsBeforePush(t *testing.T) {
	ctx := context.Background()
	st, reg, eng := deliveryFixture(t)
	st.addConversation(&chatmodel.Conversation{ConversationID: "c1", User1: "alice", User2: "bob"})
	st.failInsertMessage = errors.New("write refused")

	bob := newFakeSession("cb")
	if err := reg.Connect(ctx, "bob", bob); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := eng.Send(ctx, &MsgSendPayload{
		ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Text: "hi",
	}); err == nil {
		t.Fatal("expected error")
	}
	if len(bob.named(EvMsgReceive)) != 0 {
		t.Fatal("pushed despite failed persistence")
	}
}

func TestSendOfflineReceiverPersistsWithoutPush(t *testing.T) {
	ctx := context.Background()
	st, _, eng := deliveryFixture(t)
	st.addConversation(&chatmodel.Conversation{ConversationID: "c1", User1: "alice", User2: "bob"})

	msg, err := eng.Send(ctx, &MsgSendPayload{
		ConversationID: "c1", SenderID: "alice", ReceiverID: "bob", Text: "hi",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg == nil || st.messageCount() != 1 {
		t.Fatal("message not persisted for offline receiver")
	}
}
