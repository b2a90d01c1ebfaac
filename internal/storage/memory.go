package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Object is a stored blob in MemoryStore.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore is an in-memory ObjectStore for tests.
type MemoryStore struct {
	Bucket string
	Region string

	mu      sync.Mutex
	objects map[string]Object
	// FailPut makes every Put return this error.
	FailPut error
}

func NewMemoryStore(bucket, region string) *MemoryStore {
	return &MemoryStore{Bucket: bucket, Region: region, objects: make(map[string]Object)}
}

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	if m.FailPut != nil {
		return "", m.FailPut
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: b, ContentType: contentType}
	return PublicURL(m.Bucket, m.Region, key), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}
