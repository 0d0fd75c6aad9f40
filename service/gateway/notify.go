package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"sparrow/logger"
	notifmodel "sparrow/module/notification/model"
	"sparrow/tools/errs"
	"sparrow/tools/ids"
)

// NotificationType is the closed set of notification kinds. Input is
// normalized to uppercase; anything outside the set fails fast before any
// write.
type NotificationType string

const (
	NotifyChat     NotificationType = "CHAT"
	NotifyMention  NotificationType = "MENTION"
	NotifyFollow   NotificationType = "FOLLOW"
	NotifyUnfollow NotificationType = "UNFOLLOW"
)

func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(strings.ToUpper(s)); t {
	case NotifyChat, NotifyMention, NotifyFollow, NotifyUnfollow:
		return t, nil
	}
	return "", errs.ErrUnknownNotificationType.WithDetail(s)
}

// contentFor maps the type to its content template. Exhaustive over the
// enum; ParseNotificationType guarantees no other value reaches it.
func contentFor(t NotificationType, senderName string) string {
	switch t {
	case NotifyChat:
		return senderName + " sent you a message."
	case NotifyMention:
		return senderName + " mentioned you in a tweet."
	case NotifyFollow:
		return senderName + " started following you."
	case NotifyUnfollow:
		return senderName + " unfollowed you."
	}
	return ""
}

// EventPublisher feeds persisted notifications onto the broker for offline
// consumers (email digests and the like). nil disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

const notificationSubjectPrefix = "sparrow.notification."

// Notifier persists notifications and pushes them to the receiver's live
// session. The push requires both sender and receiver to be online; with
// the sender offline the row is still written but nothing is pushed. The
// REST notification list is the catch-up path.
type Notifier struct {
	store Store
	reg   *Registry
	bus   EventPublisher
}

func NewNotifier(store Store, reg *Registry, bus EventPublisher) *Notifier {
	return &Notifier{store: store, reg: reg, bus: bus}
}

// Emit builds, persists, publishes, and best-effort pushes one
// notification. An unrecognized type fails before anything is written.
func (n *Notifier) Emit(ctx context.Context, senderID, receiverID, typ string) (*notifmodel.Notification, error) {
	t, err := ParseNotificationType(typ)
	if err != nil {
		return nil, err
	}

	sender, err := n.store.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errs.ErrUserNotFound.WithDetail(senderID)
	}

	name := sender.Name
	if name == "" {
		name = sender.Username
	}

	rec := &notifmodel.Notification{
		NotificationID: ids.GenerateString(),
		ReceiverID:     receiverID,
		SenderID:       senderID,
		Type:           string(t),
		Content:        contentFor(t, name),
		Seen:           false,
		CreateTime:     time.Now().UnixMilli(),
	}
	if err := n.store.InsertNotification(ctx, rec); err != nil {
		return nil, err
	}

	n.publish(ctx, t, rec)

	if _, senderOnline := n.reg.HandleFor(senderID); senderOnline {
		n.reg.Push(receiverID, BuildNotificationReceive(rec, sender.FaceURL))
	}
	return rec, nil
}

func (n *Notifier) publish(ctx context.Context, t NotificationType, rec *notifmodel.Notification) {
	if n.bus == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		logger.Errorf("[notifier] marshal notification id=%s err=%v", rec.NotificationID, err)
		return
	}
	subject := notificationSubjectPrefix + strings.ToLower(string(t))
	if err := n.bus.Publish(ctx, subject, data); err != nil {
		logger.Warnf("[notifier] publish subject=%s id=%s err=%v", subject, rec.NotificationID, err)
	}
}
