package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/ledger"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/selection"
)

// DefaultAccountID is used for sessions that name no account.
const DefaultAccountID = "default"

// Session is the explicit handle of one dashboard session. It owns the
// session's selection state and shares its account's funds ledger.
type Session struct {
	ID        string
	AccountID string
	Token     string
	CreatedAt time.Time

	Selection *selection.Controller
	Ledger    *ledger.Ledger
}

// Info describes the session without its token.
func (s *Session) Info() model.SessionInfo {
	return model.SessionInfo{ID: s.ID, AccountID: s.AccountID, CreatedAt: s.CreatedAt}
}

// SessionService is the registry of open dashboard sessions.
// Ledgers are loaded once per account and shared by every session of that
// account, so concurrent sessions never see diverging balances.
type SessionService struct {
	store          ledger.Store
	openingBalance float64
	metrics        *metrics.Metrics
	log            zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	ledgerMu sync.Mutex
	ledgers  map[string]*ledger.Ledger
}

// NewSessionService creates a SessionService whose ledgers persist to store
// and start at openingBalance when nothing has been stored yet.
func NewSessionService(store ledger.Store, openingBalance float64, m *metrics.Metrics, log zerolog.Logger) *SessionService {
	return &SessionService{
		store:          store,
		openingBalance: openingBalance,
		metrics:        m,
		log:            log.With().Str("component", "sessions").Logger(),
		sessions:       make(map[string]*Session),
		ledgers:        make(map[string]*ledger.Ledger),
	}
}

// CreateSession opens a session for accountID, forwarding token to the broker
// on every collaborator call.
func (s *SessionService) CreateSession(ctx context.Context, token, accountID string) (*Session, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		accountID = DefaultAccountID
	}

	l, err := s.ledgerFor(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToCreateSession, err)
	}

	sess := &Session{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Token:     token,
		CreatedAt: time.Now().UTC(),
		Selection: selection.NewController(),
		Ledger:    l,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Set(float64(count))
	s.log.Info().Str("session", sess.ID).Str("account", accountID).Msg("session created")
	return sess, nil
}

// GetSession returns the session with the given ID.
func (s *SessionService) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

// EndSession removes the session. The account's ledger stays loaded.
func (s *SessionService) EndSession(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}
	s.metrics.ActiveSessions.Set(float64(count))
	s.log.Info().Str("session", id).Msg("session ended")
	return nil
}

// Sessions returns every open session ordered by creation time.
func (s *SessionService) Sessions() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *SessionService) ledgerFor(ctx context.Context, accountID string) (*ledger.Ledger, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	if l, ok := s.ledgers[accountID]; ok {
		return l, nil
	}

	l, err := ledger.Open(ctx, s.store, accountID, s.openingBalance,
		ledger.WithLogger(s.log.With().Str("account", accountID).Logger()))
	if err != nil {
		return nil, err
	}
	s.ledgers[accountID] = l
	return l, nil
}
