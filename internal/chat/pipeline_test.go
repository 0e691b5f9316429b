package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testMediaPrefix = "http://localhost:8080/uploads/"

func TestPipelineRejectsEmptyBody(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	p := NewPipeline(store, 100, testMediaPrefix)

	for _, body := range []string{"", "   ", "\n\t "} {
		_, err := p.Submit(context.Background(), "general", 1, "bob", body)

		var verr *ValidationError
		req.ErrorAs(err, &verr)
	}
	req.Zero(store.count(), "validation failures must not reach the store")
}

func TestPipelineRejectsOversizedBody(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	p := NewPipeline(store, 10, testMediaPrefix)

	_, err := p.Submit(context.Background(), "general", 1, "bob", strings.Repeat("x", 11))
	var verr *ValidationError
	req.ErrorAs(err, &verr)
	req.Zero(store.count())

	// Exactly at the cap is fine.
	msg, err := p.Submit(context.Background(), "general", 1, "bob", strings.Repeat("x", 10))
	req.NoError(err)
	req.Equal(KindText, msg.Kind)
}

func TestPipelineClassifiesKind(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	p := NewPipeline(store, 2000, testMediaPrefix)

	cases := []struct {
		body string
		want Kind
	}{
		{"hi there", KindText},
		{testMediaPrefix + "1700000000-ab12cd34-cat.png", KindMedia},
		{"https://example.com/elsewhere.png", KindText},
		{"check " + testMediaPrefix + "x.png", KindText},
	}
	for _, tc := range cases {
		msg, err := p.Submit(context.Background(), "general", 1, "bob", tc.body)
		req.NoError(err)
		req.Equal(tc.want, msg.Kind, "body %q", tc.body)
	}
}

func TestPipelineStoreAssignsIdentity(t *testing.T) {
	req := require.New(t)
	store := &fakeStore{}
	p := NewPipeline(store, 2000, testMediaPrefix)

	first, err := p.Submit(context.Background(), "general", 1, "bob", "one")
	req.NoError(err)
	second, err := p.Submit(context.Background(), "general", 1, "bob", "two")
	req.NoError(err)

	req.Equal(int64(1), first.ID)
	req.Equal(int64(2), second.ID)
	req.False(second.CreatedAt.Before(first.CreatedAt))
}

func TestPipelineStorageError(t *testing.T) {
	req := require.New(t)
	boom := errors.New("db down")
	store := &fakeStore{failWith: boom}
	p := NewPipeline(store, 2000, testMediaPrefix)

	_, err := p.Submit(context.Background(), "general", 1, "bob", "hello")

	var serr *StorageError
	req.ErrorAs(err, &serr)
	req.ErrorIs(err, boom)
	req.Zero(store.count())
}
