package model

// Message is one chat message. Seen is decided at creation time from the
// receiver's open flag and may later be flipped in bulk when the receiver
// opens the conversation.
type Message struct {
	MessageID      string `bson:"message_id" json:"messageId"`
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	SenderID       string `bson:"sender_id" json:"senderId"`
	ReceiverID     string `bson:"receiver_id" json:"receiverId"`
	Text           string `bson:"text" json:"text"`
	Seen           bool   `bson:"seen" json:"isSeen"`
	SendTime       int64  `bson:"send_time" json:"timestamp"` // unix ms
}

func (*Message) TableName() string { return "message" }
