package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
)

// OpeningBalance is the balance every test ledger starts with.
const OpeningBalance = 50000

// ConfirmDelay is the confirmation delay test order services report.
const ConfirmDelay = 500 * time.Millisecond

// Services bundles the services of one test stack.
type Services struct {
	Metrics   *metrics.Metrics
	Sessions  *service.SessionService
	Portfolio *service.PortfolioService
	Funds     *service.FundsService
	Orders    *service.OrderService
	System    *service.SystemService
	Broker    *MockBroker
}

// NewTestServices wires every service against db and broker.
func NewTestServices(t *testing.T, db *sql.DB, broker *MockBroker) *Services {
	t.Helper()

	m := metrics.New()
	log := zerolog.Nop()

	sessions := NewTestSessionService(t, db, m)
	portfolio := service.NewPortfolioService(broker, sessions, m, log)

	return &Services{
		Metrics:   m,
		Sessions:  sessions,
		Portfolio: portfolio,
		Funds:     service.NewFundsService(portfolio, m, log),
		Orders:    service.NewOrderService(broker, portfolio, ConfirmDelay, m, log),
		System:    NewTestSystemService(t, db),
		Broker:    broker,
	}
}

// NewTestSessionService creates a SessionService whose ledgers persist to db.
func NewTestSessionService(t *testing.T, db *sql.DB, m *metrics.Metrics) *service.SessionService {
	t.Helper()

	return service.NewSessionService(repository.NewKVRepository(db), OpeningBalance, m, zerolog.Nop())
}

// NewTestSystemService creates a SystemService backed by db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, repository.NewKVRepository(db), "sqlite", map[string]bool{"metrics": true})
}

// CreateSession opens a session for accountID and fails the test on error.
func CreateSession(t *testing.T, sessions *service.SessionService, accountID string) *service.Session {
	t.Helper()

	sess, err := sessions.CreateSession(context.Background(), "test-token", accountID)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return sess
}
