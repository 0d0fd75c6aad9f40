package model

// Notification is persisted for the receiver regardless of whether a live
// push happens; the REST listing serves the offline case. Seen is always
// false at emission and is mutated only through the REST mark-seen call.
type Notification struct {
	NotificationID string `bson:"notification_id" json:"notificationId"`
	ReceiverID     string `bson:"receiver_id" json:"-"`
	SenderID       string `bson:"sender_id" json:"-"`
	Type           string `bson:"type" json:"type"`
	Content        string `bson:"content" json:"content"`
	Seen           bool   `bson:"seen" json:"isSeen"`
	CreateTime     int64  `bson:"create_time" json:"timestamp"` // unix ms
}

func (*Notification) TableName() string { return "notification" }
