package metrics

import (
	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

// MockMetricsService is a mock implementation of MetricsService
type MockMetricsService struct {
	mock.Mock
}

var _ MetricsService = (*MockMetricsService)(nil)

// NewMockMetricsService creates a new mock metrics service
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

func (m *MockMetricsService) RegisterPoolMetrics(channel string, pool pond.Pool) {
	m.Called(channel, pool)
}

func (m *MockMetricsService) GetRegistry() *prometheus.Registry {
	args := m.Called()
	return args.Get(0).(*prometheus.Registry)
}

func (m *MockMetricsService) IncRunsStarted(flow string) {
	m.Called(flow)
}

func (m *MockMetricsService) IncRunsFinished(flow, status string) {
	m.Called(flow, status)
}

func (m *MockMetricsService) ObserveStepDuration(flow, step string, duration float64) {
	m.Called(flow, step, duration)
}

func (m *MockMetricsService) IncStepErrors(flow, step string) {
	m.Called(flow, step)
}

func (m *MockMetricsService) IncAnchorRequests(endpoint string, statusCode int) {
	m.Called(endpoint, statusCode)
}

func (m *MockMetricsService) ObserveAnchorRequestDuration(endpoint string, duration float64) {
	m.Called(endpoint, duration)
}

func (m *MockMetricsService) IncTransactionStatusPolls(flow string) {
	m.Called(flow)
}
