package gateway

import (
	"context"
	"fmt"
)

type Handler interface {
	Kind() EventKind
	Handle(ctx context.Context, c *Conn, f *Frame) error
}

// Dispatcher routes parsed frames to their handler by EventKind. The kind
// set is closed, so coverage is checked once at wiring time instead of
// surfacing as a missing-handler error under traffic.
type Dispatcher struct {
	handlers map[EventKind]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventKind]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Kind()] = h }

// CheckCoverage fails when some EventKind has no handler registered.
func (d *Dispatcher) CheckCoverage() error {
	for k := EventKind(0); k < eventKindCount; k++ {
		if _, ok := d.handlers[k]; !ok {
			return fmt.Errorf("no handler registered for %s", k)
		}
	}
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, c *Conn, f *Frame) error {
	h, ok := d.handlers[f.Kind]
	if !ok {
		return fmt.Errorf("no handler for %s", f.Kind)
	}
	return h.Handle(ctx, c, f)
}
