package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newHistoryHandler(t *testing.T, store MessageStore) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := newTestCoordinator(store, &fakeStatus{})
	return NewHandler(coord, store, logger, 50)
}

func TestGetHistoryOldestFirst(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	for _, body := range []string{"first", "second", "third"} {
		_, _, err := store.Append(context.Background(), "general", 1, "u1", body, KindText)
		req.NoError(err)
	}
	_, _, err := store.Append(context.Background(), "random", 2, "u2", "elsewhere", KindText)
	req.NoError(err)

	h := newHistoryHandler(t, store)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/messages?roomId=general", nil))

	req.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Messages []Message `json:"messages"`
		Count    int       `json:"count"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal(3, resp.Count)
	req.Equal("first", resp.Messages[0].Body)
	req.Equal("third", resp.Messages[2].Body)
}

func TestGetHistoryPagination(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	for i := 0; i < 5; i++ {
		_, _, err := store.Append(context.Background(), "general", 1, "u1", "msg", KindText)
		req.NoError(err)
	}

	h := newHistoryHandler(t, store)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/messages?roomId=general&page=2&limit=2", nil))

	var resp struct {
		Messages []Message `json:"messages"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Len(resp.Messages, 2)
	req.Equal(int64(3), resp.Messages[0].ID)
}

func TestGetHistoryRequiresRoom(t *testing.T) {
	h := newHistoryHandler(t, &fakeStore{})
	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistoryEmptyRoom(t *testing.T) {
	req := require.New(t)
	h := newHistoryHandler(t, &fakeStore{})
	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/messages?roomId=ghost", nil))

	req.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Messages []Message `json:"messages"`
		Count    int       `json:"count"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Empty(resp.Messages)
	req.Zero(resp.Count)
}

func TestGetMembers(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := newTestCoordinator(store, &fakeStatus{})
	h := NewHandler(coord, store, logger, 50)

	u1 := coord.Attach(1, "u1")
	coord.Join(u1, "general")
	recvEvent(t, u1)

	rec := httptest.NewRecorder()
	h.GetMembers(rec, httptest.NewRequest(http.MethodGet, "/api/members?roomId=general", nil))

	var members []Member
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &members))
	req.Equal([]Member{{UserID: 1, Username: "u1"}}, members)
}
