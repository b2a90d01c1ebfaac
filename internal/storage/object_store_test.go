package storage

import (
	"context"
	"strings"
	"testing"
)

func TestKeysAndPublicURL(t *testing.T) {
	if got := DocumentKey("a@b.co", "faq.pdf"); got != "user_docs/a@b.co/faq.pdf" {
		t.Fatalf("unexpected document key %q", got)
	}
	if got := VoiceKey("a@b.co", "me.mp3"); got != "user_voices/a@b.co/me.mp3" {
		t.Fatalf("unexpected voice key %q", got)
	}
	if got := PublicURL("assets", "us-east-1", "user_docs/a/f.pdf"); got != "https://assets.s3.us-east-1.amazonaws.com/user_docs/a/f.pdf" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("assets", "us-east-1")
	url, err := s.Put(context.Background(), "k", strings.NewReader("hello"), 5, "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != PublicURL("assets", "us-east-1", "k") {
		t.Fatalf("unexpected url %q", url)
	}
	o, ok := s.Get("k")
	if !ok || string(o.Data) != "hello" || o.ContentType != "text/plain" {
		t.Fatalf("unexpected object %+v", o)
	}
	if err := s.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Fatalf("expected object removed")
	}
}
