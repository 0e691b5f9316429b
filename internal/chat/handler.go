package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/Nikhilkapkoti/Chat-app/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

type Handler struct {
	coord       *Coordinator
	store       MessageStore
	log         *slog.Logger
	defaultPage int
}

func NewHandler(coord *Coordinator, store MessageStore, log *slog.Logger, defaultPageSize int) *Handler {
	return &Handler{coord: coord, store: store, log: log, defaultPage: defaultPageSize}
}

// ServeWs upgrades an authenticated request and attaches the connection to
// the coordinator. Identity comes from the JWT middleware; the socket
// itself never carries it.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	session := h.coord.Attach(userID, username)
	c := &client{session: session, coord: h.coord, conn: conn, log: h.log}

	go c.writePump()
	go c.readPump()
}

// GetHistory serves one page of a room's message history, oldest first.
// History replay is a plain REST concern, off the real-time path.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = h.defaultPage
	}

	messages, err := h.store.Query(r.Context(), roomID, page, limit)
	if err != nil {
		h.log.Error("history query failed", "room", roomID, "err", err)
		http.Error(w, "could not load messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

// GetMembers reports who is currently in a room.
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.coord.Members(roomID))
}
