package chat

import (
	"context"
	"database/sql"
	"time"
)

// MessageStore is the durable store the pipeline appends to. Append must
// only return once the message is durable; the id and timestamp it assigns
// are authoritative.
type MessageStore interface {
	Append(ctx context.Context, roomID string, userID int, username, body string, kind Kind) (id int64, createdAt time.Time, err error)
	Query(ctx context.Context, roomID string, page, limit int) ([]Message, error)
}

// PostgresStore implements MessageStore on the messages table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, roomID string, userID int, username, body string, kind Kind) (int64, time.Time, error) {
	var (
		id        int64
		createdAt time.Time
	)
	query := `
		INSERT INTO messages (room_id, user_id, username, body, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, roomID, userID, username, body, string(kind)).Scan(&id, &createdAt)
	if err != nil {
		return 0, time.Time{}, err
	}
	return id, createdAt, nil
}

// Query returns one page of a room's history, oldest first. Pages are
// 1-based to match the HTTP API.
func (s *PostgresStore) Query(ctx context.Context, roomID string, page, limit int) ([]Message, error) {
	if page < 1 {
		page = 1
	}
	query := `
		SELECT id, room_id, user_id, username, body, kind, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			msg  Message
			kind string
		)
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Username, &msg.Body, &kind, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Kind = Kind(kind)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
