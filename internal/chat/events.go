package chat

import "encoding/json"

// Inbound event types. The set is closed: anything else is answered with
// an error event and otherwise ignored.
const (
	eventJoin   = "join"
	eventSend   = "send"
	eventTyping = "typing"
)

// Outbound event types.
const (
	eventMembership = "membership"
	eventMessage    = "message"
	eventError      = "error"
)

// inboundEvent is the single envelope clients send over the socket. Which
// fields matter depends on Type. Identity fields are deliberately absent:
// userID and username come from the authenticated session, never from the
// wire.
type inboundEvent struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	Body     string `json:"body"`
	IsTyping bool   `json:"isTyping"`
}

type membershipEvent struct {
	Type   string   `json:"type"`
	RoomID string   `json:"roomId"`
	Users  []Member `json:"users"`
}

type messageEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

type typingEvent struct {
	Type     string `json:"type"`
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type errorEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func encodeMembership(roomID string, users []Member) []byte {
	b, _ := json.Marshal(membershipEvent{Type: eventMembership, RoomID: roomID, Users: users})
	return b
}

func encodeMessage(msg Message) []byte {
	b, _ := json.Marshal(messageEvent{Type: eventMessage, Message: msg})
	return b
}

func encodeTyping(userID int, username string, isTyping bool) []byte {
	b, _ := json.Marshal(typingEvent{Type: eventTyping, UserID: userID, Username: username, IsTyping: isTyping})
	return b
}

func encodeError(reason string) []byte {
	b, _ := json.Marshal(errorEvent{Type: eventError, Reason: reason})
	return b
}
