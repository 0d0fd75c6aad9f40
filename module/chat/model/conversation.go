package model

import (
	"time"
)

// Conversation is a two-party chat. Open flags are keyed per participant:
// each side independently records whether it currently has the chat view
// open, and message seen-state at send time is derived from the receiver's
// flag. At most one conversation exists per unordered user pair.
type Conversation struct {
	ConversationID string `bson:"conversation_id"`
	User1          string `bson:"user1"`
	User2          string `bson:"user2"`

	// participant user id -> chat view currently open
	OpenFlags map[string]bool `bson:"open_flags"`

	CreateTime time.Time `bson:"create_time"`
}

// Other returns the peer of userID, or "" when userID is not a participant.
func (c *Conversation) Other(userID string) string {
	switch userID {
	case c.User1:
		return c.User2
	case c.User2:
		return c.User1
	}
	return ""
}

func (c *Conversation) Has(userID string) bool {
	return userID == c.User1 || userID == c.User2
}

// OpenFor reports whether userID currently has this chat open.
func (c *Conversation) OpenFor(userID string) bool {
	return c.OpenFlags[userID]
}

func (*Conversation) TableName() string { return "conversation" }
