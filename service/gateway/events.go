package gateway

import (
	"encoding/json"
	"fmt"

	chatmodel "sparrow/module/chat/model"
	notifmodel "sparrow/module/notification/model"
	usermodel "sparrow/module/user/model"
)

// EventKind is the closed set of inbound real-time events. Parsing maps the
// wire name onto the enum so the dispatcher can be checked for coverage at
// registration time instead of failing on a stray string at runtime.
type EventKind int

const (
	EventAddUser EventKind = iota
	EventMsgSend
	EventChatOpened
	EventChatClosed
)

const eventKindCount = 4

func (k EventKind) String() string {
	switch k {
	case EventAddUser:
		return "add-user"
	case EventMsgSend:
		return "msg-send"
	case EventChatOpened:
		return "chat-opened"
	case EventChatClosed:
		return "chat-closed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

var inboundKinds = map[string]EventKind{
	"add-user":    EventAddUser,
	"msg-send":    EventMsgSend,
	"chat-opened": EventChatOpened,
	"chat-closed": EventChatClosed,
}

// Frame is a parsed inbound frame. Data stays generic here; handlers decode
// it into their payload struct.
type Frame struct {
	Kind EventKind
	Data map[string]any
}

type rawFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var rf rawFrame
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	kind, ok := inboundKinds[rf.Event]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", rf.Event)
	}
	return &Frame{Kind: kind, Data: rf.Data}, nil
}

// ---- inbound payloads ----

type AddUserPayload struct {
	UserID string `json:"userId"`
}

type MsgSendPayload struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	ReceiverID     string `json:"receiverId"`
	Text           string `json:"text"`
}

// ChatTogglePayload covers chat-opened and chat-closed. ContactID is what
// the client believes the peer is; the conversation record stays the source
// of truth for routing.
type ChatTogglePayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	ContactID      string `json:"contactId"`
}

// ---- outbound events ----

const (
	EvOnlineUsers         = "getOnlineUsers"
	EvMsgReceive          = "msg-receive"
	EvStatusOfContact     = "status-of-contact"
	EvNotificationReceive = "notification-receive"
)

// Event is one outbound frame. Push is best-effort everywhere: an absent or
// dead target connection is a normal branch, never an error.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

type ContactStatus struct {
	ConversationID string `json:"conversationId"`
	InConversation bool   `json:"inConversation"`
	IsLeaved       bool   `json:"isLeaved"`
}

type NotificationPush struct {
	NotificationID string `json:"notificationId"`
	Content        string `json:"content"`
	Timestamp      int64  `json:"timestamp"`
	SenderImgURL   string `json:"senderImgUrl"`
	IsSeen         bool   `json:"isSeen"`
}

func BuildOnlineUsers(users []usermodel.UserPublic) *Event {
	if users == nil {
		users = []usermodel.UserPublic{}
	}
	return &Event{Name: EvOnlineUsers, Data: users}
}

func BuildMsgReceive(m *chatmodel.Message) *Event {
	return &Event{Name: EvMsgReceive, Data: m}
}

func BuildContactStatus(conversationID string, inConversation, isLeaved bool) *Event {
	return &Event{Name: EvStatusOfContact, Data: ContactStatus{
		ConversationID: conversationID,
		InConversation: inConversation,
		IsLeaved:       isLeaved,
	}}
}

func BuildNotificationReceive(n *notifmodel.Notification, senderImgURL string) *Event {
	return &Event{Name: EvNotificationReceive, Data: NotificationPush{
		NotificationID: n.NotificationID,
		Content:        n.Content,
		Timestamp:      n.CreateTime,
		SenderImgURL:   senderImgURL,
		IsSeen:         n.Seen,
	}}
}
