package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"sparrow/logger"
	"sparrow/tools/ids"
)

// ConnState tracks the per-connection lifecycle: established but anonymous,
// bound to a user in the registry, and gone.
type ConnState int32

const (
	StateConnected ConnState = iota
	StateIdentified
	StateDisconnected
)

const (
	sendQueueSize = 64
	writeDeadline = 5 * time.Second
)

// Conn is one live websocket connection. Writes go through a per-connection
// queue drained by a single writer goroutine, so handlers never write to
// the socket directly and a slow client only ever loses its own pushes.
type Conn struct {
	id string
	ws *websocket.Conn

	mu     sync.Mutex
	state  ConnState
	userID string

	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:   ids.GenerateString(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UserID returns the bound user id, "" while still anonymous.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) identify(userID string) {
	c.mu.Lock()
	c.state = StateIdentified
	c.userID = userID
	c.mu.Unlock()
}

func (c *Conn) markDisconnected() {
	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
}

// Push enqueues ev for the writer goroutine. Enqueueing on a closed or full
// queue returns an error; callers treat push as best-effort and only log.
func (c *Conn) Push(ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send queue full")
	}
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// writePump drains the send queue until Close. Runs in its own goroutine,
// one per connection.
func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("[conn] write failed, closing")
				c.Close()
				return
			}
		}
	}
}
