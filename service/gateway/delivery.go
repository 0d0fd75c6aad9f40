package gateway

import (
	"context"
	"time"

	chatmodel "sparrow/module/chat/model"
	"sparrow/tools/ids"
)

// DeliveryEngine persists outgoing messages and routes them to the
// receiver's live session. A message is born seen exactly when the receiver
// currently has the conversation open.
type DeliveryEngine struct {
	store Store
	reg   *Registry
}

func NewDeliveryEngine(store Store, reg *Registry) *DeliveryEngine {
	return &DeliveryEngine{store: store, reg: reg}
}

// Send handles one msg-send request. A missing conversation is a reported
// condition, not a failure: the sender gets a status-of-contact frame with
// isLeaved=true, nothing is persisted, and the returned message is nil.
// Storage failures abort before any push.
func (e *DeliveryEngine) Send(ctx context.Context, p *MsgSendPayload) (*chatmodel.Message, error) {
	conv, err := e.store.GetConversation(ctx, p.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		e.reg.Push(p.SenderID, BuildContactStatus(p.ConversationID, false, true))
		return nil, nil
	}

	msg := &chatmodel.Message{
		MessageID:      ids.GenerateString(),
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		ReceiverID:     p.ReceiverID,
		Text:           p.Text,
		Seen:           conv.OpenFor(p.ReceiverID),
		SendTime:       time.Now().UnixMilli(),
	}
	if err := e.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	e.reg.Push(p.ReceiverID, BuildMsgReceive(msg))
	return msg, nil
}
