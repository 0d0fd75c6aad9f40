package gateway

import (
	"context"

	chatmodel "sparrow/module/chat/model"
	notifmodel "sparrow/module/notification/model"
	usermodel "sparrow/module/user/model"
)

// Store is the durable record store the gateway runs against. Lookups
// return (nil, nil) when the record does not exist; every error is a real
// storage failure and propagates to the event handler that triggered it.
type Store interface {
	// SetOnline persists the user's online flag together with the id of the
	// live connection currently bound to the user ("" when offline). The
	// account record must already exist; an unknown userID is an error, so a
	// socket that identifies with an id that never logged in fails to
	// connect instead of slipping into the registry without a roster entry.
	SetOnline(ctx context.Context, userID string, online bool, socketID string) error
	OnlineUsers(ctx context.Context) ([]usermodel.UserPublic, error)
	GetUser(ctx context.Context, userID string) (*usermodel.User, error)

	GetConversation(ctx context.Context, conversationID string) (*chatmodel.Conversation, error)
	SetActivityFlag(ctx context.Context, conversationID, userID string, open bool) error
	// ActiveConversationFor returns the conversation userID currently has
	// open, nil when there is none. A user is expected to have at most one.
	ActiveConversationFor(ctx context.Context, userID string) (*chatmodel.Conversation, error)

	InsertMessage(ctx context.Context, m *chatmodel.Message) error
	// MarkConversationSeen flips seen on every unseen message addressed to
	// receiverID in the conversation and reports how many were flipped.
	MarkConversationSeen(ctx context.Context, conversationID, receiverID string) (int64, error)

	InsertNotification(ctx context.Context, n *notifmodel.Notification) error
}
