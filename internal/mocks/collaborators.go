package mocks

import (
	"context"
	"sync"

	"github.com/technofatty/technofatty/internal/events"
	"github.com/technofatty/technofatty/internal/newsletter"
	"github.com/technofatty/technofatty/internal/notify"
	"github.com/technofatty/technofatty/internal/socialimage"
)

// Verify interface compliance
var (
	_ notify.Notifier     = (*RecordingNotifier)(nil)
	_ events.Publisher    = (*RecordingPublisher)(nil)
	_ newsletter.Provider = (*MockProvider)(nil)
	_ socialimage.Store   = (*MemoryImageStore)(nil)
)

// ContactMessage is one call to RecordingNotifier.Send
type ContactMessage struct {
	Name, Email, Subject, Message string
}

// RecordingNotifier records contact notifications
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []ContactMessage
	Err      error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Send(ctx context.Context, name, email, subject, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, ContactMessage{Name: name, Email: email, Subject: subject, Message: message})
	return n.Err
}

// Calls returns the number of Send calls
func (n *RecordingNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Messages)
}

// RecordingPublisher records published content events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
	Closed bool
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	return p.Err
}

func (p *RecordingPublisher) Close() error {
	p.Closed = true
	return nil
}

// Types returns the recorded event types in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.Type)
	}
	return types
}

// MockProvider is a scripted newsletter provider
type MockProvider struct {
	SubscribeFunc func(ctx context.Context, email string, sub newsletter.Subscriber) (newsletter.Result, error)
	Emails        []string
	Subscribers   []newsletter.Subscriber
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Subscribe(ctx context.Context, email string, sub newsletter.Subscriber) (newsletter.Result, error) {
	p.Emails = append(p.Emails, email)
	p.Subscribers = append(p.Subscribers, sub)
	if p.SubscribeFunc != nil {
		return p.SubscribeFunc(ctx, email, sub)
	}
	return newsletter.ResultSuccess, nil
}

// MemoryImageStore keeps generated social images in memory
type MemoryImageStore struct {
	BaseURL string
	Files   map[string][]byte
	Err     error
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{
		BaseURL: "https://cdn.example.com/social/",
		Files:   make(map[string][]byte),
	}
}

func (s *MemoryImageStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.Files[name] = data
	return s.URL(name), nil
}

func (s *MemoryImageStore) URL(name string) string {
	return s.BaseURL + name
}

// Pinger reports a fixed health check result
type Pinger struct {
	Err error
}

func (p Pinger) HealthCheck(ctx context.Context) error {
	return p.Err
}
