package gateway

import (
	"context"

	"sparrow/tools/errs"
)

// ActivityTracker maintains the per-participant "chat view open" flags and
// the peer-facing status pushes they trigger. Flags are persisted on the
// conversation record; the tracker itself holds no state of its own.
type ActivityTracker struct {
	store Store
	reg   *Registry
}

func NewActivityTracker(store Store, reg *Registry) *ActivityTracker {
	return &ActivityTracker{store: store, reg: reg}
}

// Open flips userID's flag to open, marks every unseen message addressed to
// userID in the conversation as seen, and tells the peer's live session (if
// any) that userID is now active in the chat.
func (t *ActivityTracker) Open(ctx context.Context, conversationID, userID string) error {
	conv, err := t.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return errs.ErrConversationNotFound.WithDetail(conversationID)
	}
	if !conv.Has(userID) {
		return errs.ErrBadRequest.WithDetail("user " + userID + " not in conversation " + conversationID)
	}

	if err := t.store.SetActivityFlag(ctx, conversationID, userID, true); err != nil {
		return err
	}
	if _, err := t.store.MarkConversationSeen(ctx, conversationID, userID); err != nil {
		return err
	}

	t.reg.Push(conv.Other(userID), BuildContactStatus(conversationID, true, false))
	return nil
}

// Close flips userID's flag back to closed and tells the peer that userID
// is no longer active but has not left the conversation.
func (t *ActivityTracker) Close(ctx context.Context, conversationID, userID string) error {
	conv, err := t.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return errs.ErrConversationNotFound.WithDetail(conversationID)
	}
	if !conv.Has(userID) {
		return errs.ErrBadRequest.WithDetail("user " + userID + " not in conversation " + conversationID)
	}

	if err := t.store.SetActivityFlag(ctx, conversationID, userID, false); err != nil {
		return err
	}

	t.reg.Push(conv.Other(userID), BuildContactStatus(conversationID, false, false))
	return nil
}

// CloseOnDisconnect closes the one conversation userID still has flagged
// open, if any. The scan stops at the first match: a user is assumed to
// have at most one chat view open at a time, so with multiple open
// conversations only one would be closed here.
func (t *ActivityTracker) CloseOnDisconnect(ctx context.Context, userID string) error {
	conv, err := t.store.ActiveConversationFor(ctx, userID)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}

	if err := t.store.SetActivityFlag(ctx, conv.ConversationID, userID, false); err != nil {
		return err
	}

	// Same inactive signal as an explicit close; clients currently do not
	// distinguish "stepped away" from "dropped".
	t.reg.Push(conv.Other(userID), BuildContactStatus(conv.ConversationID, false, false))
	return nil
}
