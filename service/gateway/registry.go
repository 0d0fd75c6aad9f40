package gateway

import (
	"context"
	"sync"

	"sparrow/logger"
)

// Session is a live connection handle. The registry only needs identity and
// a best-effort write; the concrete type is the websocket-backed Conn, tests
// inject fakes.
type Session interface {
	ID() string
	Push(ev *Event) error
	Close()
}

// PresenceMirror is the cache-side projection of the online flag (redis in
// production). Mirror writes are best-effort: the document store stays the
// system of record and a mirror failure never fails the transition.
type PresenceMirror interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
}

// Registry maps a user to at most one live session, last-connect-wins.
// Every transition persists the durable online flag before the in-memory
// swap so a storage failure leaves the registry untouched.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Session
	owner  map[string]string // session id -> user id

	store  Store
	mirror PresenceMirror // may be nil
}

func NewRegistry(store Store, mirror PresenceMirror) *Registry {
	return &Registry{
		byUser: make(map[string]Session),
		owner:  make(map[string]string),
		store:  store,
		mirror: mirror,
	}
}

// Connect binds userID to s, superseding any previous session for that
// user. The superseded session is closed; its later disconnect resolves to
// a no-op because it no longer owns an entry. A session that re-identifies
// as a different user releases its old binding first, so the old user goes
// offline and never resolves to the shared handle again.
func (r *Registry) Connect(ctx context.Context, userID string, s Session) error {
	if err := r.store.SetOnline(ctx, userID, true, s.ID()); err != nil {
		return err
	}

	r.mu.Lock()
	prev := r.owner[s.ID()]
	if prev != "" && prev != userID {
		delete(r.byUser, prev)
	}
	old := r.byUser[userID]
	if old != nil && old.ID() != s.ID() {
		delete(r.owner, old.ID())
	}
	r.byUser[userID] = s
	r.owner[s.ID()] = userID
	r.mu.Unlock()

	if old != nil && old.ID() != s.ID() {
		old.Close()
	}

	if prev != "" && prev != userID {
		if err := r.store.SetOnline(ctx, prev, false, ""); err != nil {
			logger.Warnf("[registry] set offline re-identified user=%s err=%v", prev, err)
		}
		if r.mirror != nil {
			if err := r.mirror.Offline(ctx, prev); err != nil {
				logger.Warnf("[registry] presence mirror offline user=%s err=%v", prev, err)
			}
		}
	}

	if r.mirror != nil {
		if err := r.mirror.Online(ctx, userID); err != nil {
			logger.Warnf("[registry] presence mirror online user=%s err=%v", userID, err)
		}
	}
	return nil
}

// Disconnect tears down s if it is still the current session of some user.
// It returns that user's id, or "" when s was already superseded; a stale
// disconnect must not touch the newer session's presence.
func (r *Registry) Disconnect(ctx context.Context, s Session) (string, error) {
	r.mu.Lock()
	userID, ok := r.owner[s.ID()]
	if ok {
		delete(r.owner, s.ID())
		delete(r.byUser, userID)
	}
	r.mu.Unlock()
	if !ok {
		return "", nil
	}

	if r.mirror != nil {
		if err := r.mirror.Offline(ctx, userID); err != nil {
			logger.Warnf("[registry] presence mirror offline user=%s err=%v", userID, err)
		}
	}
	if err := r.store.SetOnline(ctx, userID, false, ""); err != nil {
		return userID, err
	}
	return userID, nil
}

// HandleFor is the read-only lookup other components use to decide whether
// to push.
func (r *Registry) HandleFor(userID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// Push delivers ev to userID's live session if there is one. The handle is
// resolved at call time so a push prepared before a fast reconnect cannot
// land on the stale connection.
func (r *Registry) Push(userID string, ev *Event) {
	s, ok := r.HandleFor(userID)
	if !ok {
		return
	}
	if err := s.Push(ev); err != nil {
		logger.Warnf("[registry] push user=%s event=%s err=%v", userID, ev.Name, err)
	}
}
