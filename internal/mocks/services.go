package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/technofatty/technofatty/internal/service"
)

// MockHealthService is a mock implementation of HealthService
type MockHealthService struct {
	DBErr    error
	CacheErr error
}

// Verify interface compliance
var _ service.HealthService = (*MockHealthService)(nil)

func (m *MockHealthService) CheckDB(ctx context.Context) error {
	return m.DBErr
}

func (m *MockHealthService) CheckCache(ctx context.Context) error {
	return m.CacheErr
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamLeadsFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	Count           int
	Formats         []string
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamLeads(ctx context.Context, w http.ResponseWriter, format string) error {
	m.Formats = append(m.Formats, format)
	if m.StreamLeadsFunc != nil {
		return m.StreamLeadsFunc(ctx, w, format)
	}
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte("[]"))
	return err
}

func (m *MockExportService) CountLeads(ctx context.Context) (int, error) {
	return m.Count, nil
}

// MockSchedulerService is a mock implementation of SchedulerService
type MockSchedulerService struct {
	mu      sync.Mutex
	Started bool
	Stopped bool
	Runs    int
	// Published is returned from every RunOnce
	Published int
	Err       error
}

// Verify interface compliance
var _ service.SchedulerService = (*MockSchedulerService)(nil)

func NewMockSchedulerService() *MockSchedulerService {
	return &MockSchedulerService{}
}

func (m *MockSchedulerService) StartProcessor(ctx context.Context) {
	m.mu.Lock()
	m.Started = true
	m.mu.Unlock()
}

func (m *MockSchedulerService) StopProcessor() {
	m.mu.Lock()
	m.Stopped = true
	m.mu.Unlock()
}

func (m *MockSchedulerService) RunOnce(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs++
	return m.Published, m.Err
}
