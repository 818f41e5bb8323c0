package mocks

import (
	"context"
	"mime/multipart"
	"sync"

	"github.com/article-threads-api/internal/service"
	"github.com/article-threads-api/internal/storage"
)

// Verify interface compliance
var (
	_ service.Notifier = (*MockNotifier)(nil)
	_ storage.Provider = (*MockStorage)(nil)
)

// Dispatched is one publication recorded by MockNotifier
type Dispatched struct {
	Topic   string
	Payload any
}

// MockNotifier records publications instead of sending them
type MockNotifier struct {
	mu     sync.Mutex
	Events []Dispatched
	// Drop makes every Dispatch report a dropped publication
	Drop bool
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Events: make([]Dispatched, 0)}
}

func (m *MockNotifier) Dispatch(topic string, payload any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Drop {
		return false
	}
	m.Events = append(m.Events, Dispatched{Topic: topic, Payload: payload})
	return true
}

// Count returns the number of recorded publications
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// MockStorage is a storage.Provider that keeps nothing
type MockStorage struct {
	SaveFunc func(ctx context.Context, file *multipart.FileHeader) (string, error)
	Saved    []string
}

func NewMockStorage() *MockStorage {
	return &MockStorage{Saved: make([]string, 0)}
}

func (m *MockStorage) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, file)
	}
	url := "http://files.test/uploads/" + file.Filename
	m.Saved = append(m.Saved, url)
	return url, nil
}
