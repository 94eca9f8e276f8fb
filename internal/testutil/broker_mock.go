package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
)

// MockBroker is a mock implementation of broker.Client for testing.
// It returns predefined records instead of calling a brokerage backend.
type MockBroker struct {
	mu sync.Mutex

	// HoldingRecords, PositionRecords and OrderRecords are returned by the read methods.
	HoldingRecords  []model.Holding
	PositionRecords []model.Position
	OrderRecords    []model.Order

	// ReadError is returned by every read method when set.
	ReadError error

	// OrderError is returned by NewOrder when set.
	OrderError error

	// Gate, when set, makes NewOrder wait until it is closed.
	Gate chan struct{}

	readCount int
	submitted []model.Order
}

// NewMockBroker creates a mock broker with default test data.
func NewMockBroker() *MockBroker {
	return &MockBroker{
		HoldingRecords: []model.Holding{
			{Name: "BHARTIARTL", Qty: 2, Avg: 538.05, Price: 541.15, Net: "+0.58%", Day: "+2.99%"},
			{Name: "HDFCBANK", Qty: 2, Avg: 1383.4, Price: 1522.35, Net: "+10.04%", Day: "+0.11%"},
			{Name: "TATAPOWER", Qty: 5, Avg: 104.2, Price: 124.15, Net: "+19.15%", Day: "-0.24%", IsLoss: true},
		},
		PositionRecords: []model.Position{
			{Holding: model.Holding{Name: "EVEREADY", Qty: 2, Avg: 316.27, Price: 312.35, Net: "+0.58%", Day: "-1.24%", IsLoss: true}, Product: "CNC"},
			{Holding: model.Holding{Name: "JUBLFOOD", Qty: 1, Avg: 3124.75, Price: 3082.65, Net: "+10.04%", Day: "-1.35%", IsLoss: true}, Product: "CNC"},
		},
		OrderRecords: []model.Order{},
	}
}

// Holdings implements broker.Client.
func (m *MockBroker) Holdings(_ context.Context, _ string) ([]model.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCount++
	if m.ReadError != nil {
		return nil, m.ReadError
	}
	return slices.Clone(m.HoldingRecords), nil
}

// Positions implements broker.Client.
func (m *MockBroker) Positions(_ context.Context, _ string) ([]model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCount++
	if m.ReadError != nil {
		return nil, m.ReadError
	}
	return slices.Clone(m.PositionRecords), nil
}

// Orders implements broker.Client.
func (m *MockBroker) Orders(_ context.Context, _ string) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCount++
	if m.ReadError != nil {
		return nil, m.ReadError
	}
	return slices.Clone(m.OrderRecords), nil
}

// NewOrder implements broker.Client. Accepted orders are appended to OrderRecords.
func (m *MockBroker) NewOrder(ctx context.Context, _ string, order model.Order) error {
	m.mu.Lock()
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, order)
	if m.OrderError != nil {
		return m.OrderError
	}
	m.OrderRecords = append(m.OrderRecords, order)
	return nil
}

// WithReadError configures the read methods to fail with err.
func (m *MockBroker) WithReadError(err error) *MockBroker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadError = err
	return m
}

// WithOrderError configures NewOrder to fail with err.
func (m *MockBroker) WithOrderError(err error) *MockBroker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderError = err
	return m
}

// WithHoldings replaces the holdings returned by Holdings.
func (m *MockBroker) WithHoldings(holdings ...model.Holding) *MockBroker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HoldingRecords = holdings
	return m
}

// WithOrders replaces the orders returned by Orders.
func (m *MockBroker) WithOrders(orders ...model.Order) *MockBroker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRecords = orders
	return m
}

// WithGate makes NewOrder block until gate is closed.
func (m *MockBroker) WithGate(gate chan struct{}) *MockBroker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gate = gate
	return m
}

// ReadCount returns how many read calls reached the mock.
func (m *MockBroker) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCount
}

// Submitted returns every order NewOrder received, accepted or not.
func (m *MockBroker) Submitted() []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.submitted)
}
