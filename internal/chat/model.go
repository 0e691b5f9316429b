package chat

import "time"

// Kind classifies a message body.
type Kind string

const (
	KindText  Kind = "text"
	KindMedia Kind = "media"
)

// Message is one persisted chat message. ID and CreatedAt are assigned by
// the store; within a room, (CreatedAt, ID) gives creation order.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is one presence entry as seen by clients.
type Member struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
}
