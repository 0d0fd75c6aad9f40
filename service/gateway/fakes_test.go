package gateway

import (
	"context"
	"sort"
	"sync"

	chatmodel "sparrow/module/chat/model"
	notifmodel "sparrow/module/notification/model"
	usermodel "sparrow/module/user/model"
)

// fakeSession records pushes instead of writing to a socket.
type fakeSession struct {
	id string

	mu      sync.Mutex
	events  []*Event
	closed  bool
	pushErr error
}

func newFakeSession(id string) *fakeSession { return &fakeSession{id: id} }

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Push(ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return s.pushErr
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) named(name string) []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Event
	for _, ev := range s.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// fakeStore is an in-memory Store with per-operation error injection.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*usermodel.User
	convs  map[string]*chatmodel.Conversation
	msgs   []*chatmodel.Message
	notifs []*notifmodel.Notification

	failSetOnline          error
	failGetConversation    error
	failInsertMessage      error
	failInsertNotification error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*usermodel.User),
		convs: make(map[string]*chatmodel.Conversation),
	}
}

func (f *fakeStore) addUser(u *usermodel.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.UserID] = u
}

func (f *fakeStore) addConversation(c *chatmodel.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.OpenFlags == nil {
		c.OpenFlags = map[string]bool{c.User1: false, c.User2: false}
	}
	f.convs[c.ConversationID] = c
}

func (f *fakeStore) addMessage(m *chatmodel.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
}

func (f *fakeStore) SetOnline(_ context.Context, userID string, online bool, socketID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetOnline != nil {
		return f.failSetOnline
	}
	u, ok := f.users[userID]
	if !ok {
		u = &usermodel.User{UserID: userID}
		f.users[userID] = u
	}
	u.Online = online
	u.SocketID = socketID
	return nil
}

func (f *fakeStore) OnlineUsers(context.Context) ([]usermodel.UserPublic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []usermodel.UserPublic
	for _, u := range f.users {
		if u.Online {
			out = append(out, u.Public())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeStore) GetUser(_ context.Context, userID string) (*usermodel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetConversation(_ context.Context, conversationID string) (*chatmodel.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGetConversation != nil {
		return nil, f.failGetConversation
	}
	c, ok := f.convs[conversationID]
	if !ok {
		return nil, nil
	}
	return copyConv(c), nil
}

func (f *fakeStore) SetActivityFlag(_ context.Context, conversationID, userID string, open bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return nil
	}
	c.OpenFlags[userID] = open
	return nil
}

func (f *fakeStore) ActiveConversationFor(_ context.Context, userID string) (*chatmodel.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.convs))
	for id := range f.convs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c := f.convs[id]
		if c.Has(userID) && c.OpenFlags[userID] {
			return copyConv(c), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, m *chatmodel.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertMessage != nil {
		return f.failInsertMessage
	}
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeStore) MarkConversationSeen(_ context.Context, conversationID, receiverID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.Seen {
			m.Seen = true
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertNotification(_ context.Context, n *notifmodel.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertNotification != nil {
		return f.failInsertNotification
	}
	cp := *n
	f.notifs = append(f.notifs, &cp)
	return nil
}

func (f *fakeStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func (f *fakeStore) notificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifs)
}

func (f *fakeStore) conv(id string) *chatmodel.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyConv(f.convs[id])
}

func (f *fakeStore) user(id string) *usermodel.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func copyConv(c *chatmodel.Conversation) *chatmodel.Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.OpenFlags = make(map[string]bool, len(c.OpenFlags))
	for k, v := range c.OpenFlags {
		cp.OpenFlags[k] = v
	}
	return &cp
}

// fakeBus records published notification events.
type fakeBus struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (b *fakeBus) Publish(_ context.Context, subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, data)
	return nil
}
