package gateway

import (
	"context"

	"sparrow/logger"
	"sparrow/tools/decode"
	"sparrow/tools/errs"
)

type addUserHandler struct{ s *Server }

func (h *addUserHandler) Kind() EventKind { return EventAddUser }

func (h *addUserHandler) Handle(ctx context.Context, c *Conn, f *Frame) error {
	p, err := decode.DecodeMap[AddUserPayload](f.Data)
	if err != nil {
		return err
	}
	return h.s.handleAddUser(ctx, c, p)
}

type msgSendHandler struct{ s *Server }

func (h *msgSendHandler) Kind() EventKind { return EventMsgSend }

func (h *msgSendHandler) Handle(ctx context.Context, c *Conn, f *Frame) error {
	p, err := decode.DecodeMap[MsgSendPayload](f.Data)
	if err != nil {
		return err
	}
	if p.ConversationID == "" || p.SenderID == "" || p.ReceiverID == "" {
		return errs.ErrBadRequest.WithDetail("msg-send missing ids")
	}
	_, err = h.s.delivery.Send(ctx, p)
	return err
}

type chatOpenedHandler struct{ s *Server }

func (h *chatOpenedHandler) Kind() EventKind { return EventChatOpened }

func (h *chatOpenedHandler) Handle(ctx context.Context, c *Conn, f *Frame) error {
	p, err := decodeToggle(c, f)
	if err != nil || p == nil {
		return err
	}
	return h.s.activity.Open(ctx, p.ConversationID, p.UserID)
}

type chatClosedHandler struct{ s *Server }

func (h *chatClosedHandler) Kind() EventKind { return EventChatClosed }

func (h *chatClosedHandler) Handle(ctx context.Context, c *Conn, f *Frame) error {
	p, err := decodeToggle(c, f)
	if err != nil || p == nil {
		return err
	}
	return h.s.activity.Close(ctx, p.ConversationID, p.UserID)
}

// decodeToggle decodes a chat-opened/chat-closed payload. The events are
// only meaningful once the connection is identified; before that they are
// dropped with a log line rather than failing the connection.
func decodeToggle(c *Conn, f *Frame) (*ChatTogglePayload, error) {
	if c.State() != StateIdentified {
		logger.Infof("[ws] %s before add-user conn=%s, dropped", f.Kind, c.ID())
		return nil, nil
	}
	p, err := decode.DecodeMap[ChatTogglePayload](f.Data)
	if err != nil {
		return nil, err
	}
	if p.ConversationID == "" || p.UserID == "" {
		return nil, errs.ErrBadRequest.WithDetail(f.Kind.String() + " missing ids")
	}
	return p, nil
}
