package gateway

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sparrow/logger"
	"sparrow/tools/errs"
	"sparrow/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const teardownTimeout = 2 * time.Second

// Server is the real-time composition root: it owns the presence registry
// and activity tracker, and binds inbound frames to the delivery engine and
// notifier. The durable store is injected at construction.
type Server struct {
	gatewayID string
	store     Store
	registry  *Registry
	activity  *ActivityTracker
	delivery  *DeliveryEngine
	notifier  *Notifier
	disp      *Dispatcher
}

// Options carries the optional collaborators; either may be nil.
type Options struct {
	Mirror PresenceMirror
	Bus    EventPublisher
}

func NewServer(gatewayID string, store Store, opts Options) (*Server, error) {
	s := &Server{
		gatewayID: gatewayID,
		store:     store,
		disp:      NewDispatcher(),
	}
	s.registry = NewRegistry(store, opts.Mirror)
	s.activity = NewActivityTracker(store, s.registry)
	s.delivery = NewDeliveryEngine(store, s.registry)
	s.notifier = NewNotifier(store, s.registry, opts.Bus)

	s.disp.Register(&addUserHandler{s: s})
	s.disp.Register(&msgSendHandler{s: s})
	s.disp.Register(&chatOpenedHandler{s: s})
	s.disp.Register(&chatClosedHandler{s: s})
	if err := s.disp.CheckCoverage(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Notifier() *Notifier { return s.notifier }

// HandleWS upgrades the request and runs the connection's read loop. One
// failed handler only skips that frame; the loop and every other connection
// keep going.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	conn := newConn(ws)
	safe.Go(conn.writePump)
	logger.Infof("[ws] connected conn=%s remote=%s", conn.ID(), ws.RemoteAddr())

	ctx := context.Background()
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s", conn.ID())
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", conn.ID(), rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", conn.ID(), rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		f, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame conn=%s err=%v sample=%q", conn.ID(), perr, sample)
			continue
		}

		if err := s.disp.Dispatch(ctx, conn, f); err != nil {
			logger.Errorf("[ws] handler %s conn=%s err=%v", f.Kind, conn.ID(), err)
		}
	}

	s.teardown(conn)
}

// teardown moves the connection to DISCONNECTED and reconciles presence and
// activity state. A connection that was superseded by a reconnect resolves
// to a no-op in the registry and skips the activity cleanup.
func (s *Server) teardown(conn *Conn) {
	conn.markDisconnected()
	conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	userID, err := s.registry.Disconnect(ctx, conn)
	if err != nil {
		logger.Errorf("[ws] disconnect persist user=%s err=%v", userID, err)
	}
	if userID == "" {
		return
	}
	if err := s.activity.CloseOnDisconnect(ctx, userID); err != nil {
		logger.Errorf("[ws] close-on-disconnect user=%s err=%v", userID, err)
	}
	logger.Infof("[ws] disconnected conn=%s user=%s", conn.ID(), userID)
}

// handleAddUser binds the connection to a user and replies with the online
// roster. Shared by the handler type and tests.
func (s *Server) handleAddUser(ctx context.Context, c *Conn, p *AddUserPayload) error {
	if p.UserID == "" {
		return errs.ErrBadRequest.WithDetail("add-user without userId")
	}
	if err := s.registry.Connect(ctx, p.UserID, c); err != nil {
		return err
	}
	c.identify(p.UserID)

	users, err := s.store.OnlineUsers(ctx)
	if err != nil {
		return err
	}
	if err := c.Push(BuildOnlineUsers(users)); err != nil {
		logger.Warnf("[ws] roster push user=%s err=%v", p.UserID, err)
	}
	return nil
}
