package chat

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError rejects a message before it ever reaches the store.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid message: " + e.Reason }

// StorageError means the durable store refused or failed the append. The
// message was not broadcast and the client has to resubmit; the pipeline
// never retries on its own.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "message not persisted: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Pipeline turns an inbound message request into a durable, classified
// record. It never broadcasts itself; the coordinator fans out the exact
// record Submit returns, so persisted order and broadcast order match.
type Pipeline struct {
	store       MessageStore
	maxBody     int
	mediaPrefix string
}

func NewPipeline(store MessageStore, maxBody int, mediaPrefix string) *Pipeline {
	return &Pipeline{store: store, maxBody: maxBody, mediaPrefix: mediaPrefix}
}

// Submit validates, classifies and persists one message. The store call is
// synchronous: when Submit returns without error the message is durable.
func (p *Pipeline) Submit(ctx context.Context, roomID string, userID int, username, body string) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, &ValidationError{Reason: "empty body"}
	}
	if len(body) > p.maxBody {
		return Message{}, &ValidationError{Reason: fmt.Sprintf("body exceeds %d bytes", p.maxBody)}
	}

	kind := p.classify(body)

	id, createdAt, err := p.store.Append(ctx, roomID, userID, username, body, kind)
	if err != nil {
		return Message{}, &StorageError{Err: err}
	}

	return Message{
		ID:        id,
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Body:      body,
		Kind:      kind,
		CreatedAt: createdAt,
	}, nil
}

// classify marks a body as media when it is a well-formed URL under the
// blob store's public prefix. Everything else, including URLs to arbitrary
// hosts, stays text.
func (p *Pipeline) classify(body string) Kind {
	if p.mediaPrefix == "" || !strings.HasPrefix(body, p.mediaPrefix) {
		return KindText
	}
	u, err := url.Parse(body)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return KindText
	}
	return KindMedia
}
