package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	storeTimeout  = 10 * time.Second
	statusTimeout = 5 * time.Second
)

// Coordinator owns the live connection set and is the single authority
// over the presence table. Every operation that mutates a room's
// membership or appends to its history runs under that room's mutex, so
// each membership/message broadcast observes a state consistent with the
// order mutations were applied. Different rooms never contend: a slow
// store append in one room does not delay joins or sends elsewhere.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex

	presence *PresenceTable
	pipeline *Pipeline
	status   StatusStore
	log      *slog.Logger
}

func NewCoordinator(pipeline *Pipeline, status StatusStore, log *slog.Logger) *Coordinator {
	return &Coordinator{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		presence: NewPresenceTable(),
		pipeline: pipeline,
		status:   status,
		log:      log,
	}
}

// Attach registers a new connection with no room yet.
func (c *Coordinator) Attach(userID int, username string) *Session {
	s := newSession(userID, username)

	c.mu.Lock()
	c.sessions[s.ConnID] = s
	c.mu.Unlock()

	c.log.Info("session attached", "conn", s.ConnID, "user", username)
	return s
}

// Join moves the session into roomID. If the session currently occupies a
// different room it is removed from there first, with that room's
// membership re-broadcast. The presence upsert replaces any prior entry
// for the same user in the room, so a re-join from a new connection
// supersedes the stale one. The joiner receives the membership snapshot
// too, which also makes a repeated identical join a harmless re-emit.
func (c *Coordinator) Join(s *Session, roomID string) {
	if roomID == "" {
		s.trySend(encodeError("roomId is required"))
		return
	}

	c.mu.Lock()
	prev := s.room
	c.mu.Unlock()

	if prev != "" && prev != roomID {
		lk := c.roomLock(prev)
		lk.Lock()
		if c.presence.Remove(prev, s.UserID, s.ConnID) {
			c.broadcastMembership(prev)
		}
		lk.Unlock()
	}

	lk := c.roomLock(roomID)
	lk.Lock()
	c.presence.Upsert(roomID, s.UserID, presenceEntry{ConnID: s.ConnID, Username: s.Username})
	c.mu.Lock()
	s.room = roomID
	c.mu.Unlock()
	c.broadcastMembership(roomID)
	lk.Unlock()

	c.syncStatus("online", func(ctx context.Context) error {
		return c.status.SetOnline(ctx, s.UserID, s.Username, roomID, s.ConnID)
	})
	c.log.Info("joined room", "conn", s.ConnID, "user", s.Username, "room", roomID)
}

// Send runs the session's message through the pipeline and, once durable,
// fans it out to the room. Validation and storage failures go back to the
// sender only; nothing is broadcast for them.
func (c *Coordinator) Send(s *Session, body string) {
	c.mu.Lock()
	roomID := s.room
	c.mu.Unlock()

	if roomID == "" {
		s.trySend(encodeError("join a room before sending"))
		return
	}

	lk := c.roomLock(roomID)
	lk.Lock()
	defer lk.Unlock()

	// Store calls keep their own context: a connection dropping mid-send
	// must not abandon an append already in flight.
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	msg, err := c.pipeline.Submit(ctx, roomID, s.UserID, s.Username, body)
	if err != nil {
		s.trySend(encodeError(err.Error()))
		return
	}

	c.deliver(roomID, encodeMessage(msg), "")
}

// SetTyping relays the typing state to everyone else in the session's
// room. No room, no-op; nothing is stored or acknowledged.
func (c *Coordinator) SetTyping(s *Session, isTyping bool) {
	c.mu.Lock()
	roomID := s.room
	c.mu.Unlock()

	if roomID == "" {
		return
	}
	c.deliver(roomID, encodeTyping(s.UserID, s.Username, isTyping), s.ConnID)
}

// Disconnect is the terminal transition for a session. The presence entry
// is found by connection id rather than the session's room pointer, so a
// superseded connection cannot evict its successor. Called exactly once
// per connection, by the read pump on its way out.
func (c *Coordinator) Disconnect(s *Session) {
	c.mu.Lock()
	if _, ok := c.sessions[s.ConnID]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.sessions, s.ConnID)
	c.mu.Unlock()
	close(s.done)

	if roomID, userID, ok := c.presence.RoomOf(s.ConnID); ok {
		lk := c.roomLock(roomID)
		lk.Lock()
		removed := c.presence.Remove(roomID, userID, s.ConnID)
		if removed {
			c.broadcastMembership(roomID)
		}
		lk.Unlock()

		// Only the connection that still owns the presence entry gets to
		// flip the user offline. A connection superseded by a fresh one
		// must leave the status record alone: the user is still live.
		if removed {
			c.syncStatus("offline", func(ctx context.Context) error {
				return c.status.SetOffline(ctx, s.ConnID)
			})
		}
	}
	c.log.Info("session detached", "conn", s.ConnID, "user", s.Username)
}

// Members exposes a room's current membership snapshot.
func (c *Coordinator) Members(roomID string) []Member {
	return c.presence.Snapshot(roomID)
}

// roomLock returns the mutex serializing operations on roomID, creating
// it on first use. Locks are never dropped once created; the set of room
// names is small.
func (c *Coordinator) roomLock(roomID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lk, ok := c.locks[roomID]
	if !ok {
		lk = &sync.Mutex{}
		c.locks[roomID] = lk
	}
	return lk
}

// broadcastMembership sends the room's full membership list to every
// member, including whoever just triggered the change. Caller holds the
// room lock.
func (c *Coordinator) broadcastMembership(roomID string) {
	c.deliver(roomID, encodeMembership(roomID, c.presence.Snapshot(roomID)), "")
}

// deliver pushes a payload to every live connection in the room, minus
// excludeConn when set. Per-recipient failures (gone or slow connections)
// are skipped; the sender never hears about them.
func (c *Coordinator) deliver(roomID string, payload []byte, excludeConn string) {
	conns := c.presence.conns(roomID)

	c.mu.Lock()
	targets := make([]*Session, 0, len(conns))
	for _, connID := range conns {
		if connID == excludeConn {
			continue
		}
		if s, ok := c.sessions[connID]; ok {
			targets = append(targets, s)
		}
	}
	c.mu.Unlock()

	for _, s := range targets {
		if !s.trySend(payload) {
			c.log.Debug("dropped payload for slow connection", "conn", s.ConnID)
		}
	}
}

// syncStatus runs a best-effort status-store write in the background. A
// failure is logged and swallowed: online-status bookkeeping must never
// block or fail a join, leave, or broadcast.
func (c *Coordinator) syncStatus(op string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			c.log.Warn("status sync failed", "op", op, "err", err)
		}
	}()
}
