package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// presenceEntry is what the table holds per (room, user).
type presenceEntry struct {
	ConnID   string
	Username string
}

// PresenceTable is the source of truth for live room membership:
// roomID -> userID -> entry. It is a plain data structure with no network
// or persistence side effects; the coordinator is the only writer and
// pairs every mutation with a membership broadcast under the owning
// room's lock. The internal mutex only keeps the maps safe across rooms.
type PresenceTable struct {
	mu    sync.RWMutex
	rooms map[string]map[int]presenceEntry
}

func NewPresenceTable() *PresenceTable {
	return &PresenceTable{rooms: make(map[string]map[int]presenceEntry)}
}

// Upsert adds the user to the room, replacing any prior entry for that
// user. Replacement is what makes a re-join from a fresh connection (a
// stale tab reconnecting) win over the old one.
func (t *PresenceTable) Upsert(roomID string, userID int, entry presenceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	if room == nil {
		room = make(map[int]presenceEntry)
		t.rooms[roomID] = room
	}
	room[userID] = entry
}

// Remove deletes the user's entry from the room, but only when it belongs
// to connID. A stale connection disconnecting after being superseded must
// not evict its successor.
func (t *PresenceTable) Remove(roomID string, userID int, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	entry, ok := room[userID]
	if !ok || entry.ConnID != connID {
		return false
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

// RoomOf reports which room currently holds an entry for connID. Disconnect
// cleanup keys off this rather than the session's own room pointer.
func (t *PresenceTable) RoomOf(connID string) (roomID string, userID int, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for rid, room := range t.rooms {
		for uid, entry := range room {
			if entry.ConnID == connID {
				return rid, uid, true
			}
		}
	}
	return "", 0, false
}

// Snapshot returns the room's members sorted by username. Unknown rooms
// yield an empty slice, never an error.
func (t *PresenceTable) Snapshot(roomID string) []Member {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members := lo.MapToSlice(t.rooms[roomID], func(userID int, entry presenceEntry) Member {
		return Member{UserID: userID, Username: entry.Username}
	})
	sort.Slice(members, func(i, j int) bool { return members[i].Username < members[j].Username })
	return members
}

// conns returns the connection ids currently present in the room.
func (t *PresenceTable) conns(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return lo.Map(lo.Values(t.rooms[roomID]), func(e presenceEntry, _ int) string {
		return e.ConnID
	})
}
