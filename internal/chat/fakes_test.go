package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory MessageStore that assigns sequential ids.
type fakeStore struct {
	mu       sync.Mutex
	messages []Message
	failWith error
}

func (f *fakeStore) Append(_ context.Context, roomID string, userID int, username, body string, kind Kind) (int64, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return 0, time.Time{}, f.failWith
	}
	msg := Message{
		ID:        int64(len(f.messages) + 1),
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	f.messages = append(f.messages, msg)
	return msg.ID, msg.CreatedAt, nil
}

func (f *fakeStore) Query(_ context.Context, roomID string, page, limit int) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// fakeStatus records online/offline calls.
type fakeStatus struct {
	mu      sync.Mutex
	online  []int    // user ids
	offline []string // conn ids
}

func (f *fakeStatus) SetOnline(_ context.Context, userID int, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = append(f.online, userID)
	return nil
}

func (f *fakeStatus) SetOffline(_ context.Context, connID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, connID)
	return nil
}

func (f *fakeStatus) offlineCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.offline)
}

func (f *fakeStatus) offlineConns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.offline...)
}

func newTestCoordinator(store MessageStore, status StatusStore) *Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := NewPipeline(store, 2000, "http://localhost:8080/uploads/")
	return NewCoordinator(pipeline, status, logger)
}

// recvEvent pops the next queued event off a session and decodes it.
func recvEvent(t *testing.T, s *Session) map[string]interface{} {
	t.Helper()

	select {
	case raw := <-s.send:
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event, got none")
		return nil
	}
}

// requireNoEvent asserts the session's queue is empty.
func requireNoEvent(t *testing.T, s *Session) {
	t.Helper()

	select {
	case raw := <-s.send:
		t.Fatalf("expected no event, got %s", raw)
	default:
	}
}

// membersOf extracts usernames from a membership event payload.
func membersOf(t *testing.T, ev map[string]interface{}) []string {
	t.Helper()

	require.Equal(t, "membership", ev["type"])
	users, ok := ev["users"].([]interface{})
	require.True(t, ok)

	var names []string
	for _, u := range users {
		entry := u.(map[string]interface{})
		names = append(names, entry["username"].(string))
	}
	return names
}
