package chat

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusStore records online/offline state for the rest of the system.
// Both calls are best-effort from the coordinator's point of view: a
// failure is logged and swallowed, and never blocks presence or broadcast.
type StatusStore interface {
	SetOnline(ctx context.Context, userID int, username, roomID, connID string) error
	SetOffline(ctx context.Context, connID string) error
}

// RedisStatusStore keeps a hash per user plus a conn -> user reverse key so
// that offline writes can be resolved from just the connection id.
type RedisStatusStore struct {
	client *redis.Client
}

func NewRedisStatusStore(client *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

const connKeyTTL = 48 * time.Hour

func userKey(userID string) string { return "user:status:" + userID }
func connKey(connID string) string { return "conn:user:" + connID }

func (s *RedisStatusStore) SetOnline(ctx context.Context, userID int, username, roomID, connID string) error {
	uid := strconv.Itoa(userID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, userKey(uid), map[string]interface{}{
		"username":     username,
		"online":       "1",
		"current_room": roomID,
		"conn_id":      connID,
		"last_seen":    time.Now().UTC().Format(time.RFC3339),
	})
	pipe.Set(ctx, connKey(connID), uid, connKeyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatusStore) SetOffline(ctx context.Context, connID string) error {
	uid, err := s.client.Get(ctx, connKey(connID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, userKey(uid), map[string]interface{}{
		"online":    "0",
		"last_seen": time.Now().UTC().Format(time.RFC3339),
	})
	pipe.HDel(ctx, userKey(uid), "current_room", "conn_id")
	pipe.Del(ctx, connKey(connID))
	_, err = pipe.Exec(ctx)
	return err
}
