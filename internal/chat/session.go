package chat

import "github.com/google/uuid"

const sendBuffer = 256

// Session binds one live connection to an identity and, once joined, a
// room. The coordinator owns it from Attach to Disconnect; the room field
// is only touched under the coordinator's lock.
type Session struct {
	ConnID   string
	UserID   int
	Username string

	room string

	// Buffered outbound queue drained by the connection's write pump.
	send chan []byte
	// Closed by the coordinator on disconnect to stop the write pump.
	done chan struct{}
}

func newSession(userID int, username string) *Session {
	return &Session{
		ConnID:   uuid.NewString(),
		UserID:   userID,
		Username: username,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// trySend queues a payload without blocking. A full buffer means the
// recipient is too slow; the payload is dropped and delivery stays
// best-effort.
func (s *Session) trySend(payload []byte) bool {
	select {
	case <-s.done:
		return false
	case s.send <- payload:
		return true
	default:
		return false
	}
}
