// Package ledger implements the funds ledger of a trading account: the
// available balance plus an append-only, newest-first list of funds
// transactions.
//
// A transaction and the balance change it records are committed together:
// the new state is first written through to the Store and only then made
// visible. A rejected or unpersisted operation leaves both untouched.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/valuation"
)

// Persisted key names. Any future change to the stored layout must be additive.
const (
	KeyTransactions     = "transactions"
	KeyAvailableBalance = "availableBalance"
)

// DefaultPaymentMethod is recorded for deposits that name no payment method.
const DefaultPaymentMethod = "UPI"

// Store is the durable key/value store a ledger writes through to.
type Store interface {
	// Get returns the value of key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// PutAll writes every entry atomically.
	PutAll(ctx context.Context, entries map[string][]byte) error
}

// Ledger is the funds ledger of one account. It is safe for concurrent use.
type Ledger struct {
	mu           sync.Mutex
	store        Store
	scope        string
	balance      decimal.Decimal
	transactions []model.FundsTransaction
	lastID       int64

	now func() time.Time
	log zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to date transactions and derive ids.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the ledger's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// Open loads the ledger stored under scope, or starts one with
// openingBalance and no transactions when nothing has been persisted yet.
//
// The balance is persisted as a decimal string. A balance stored as a bare
// JSON number still loads.
func Open(ctx context.Context, store Store, scope string, openingBalance float64, opts ...Option) (*Ledger, error) {
	if math.IsNaN(openingBalance) || math.IsInf(openingBalance, 0) {
		return nil, fmt.Errorf("%w: opening balance %v", apperrors.ErrInvalidAmount, openingBalance)
	}
	l := &Ledger{
		store:   store,
		scope:   scope,
		balance: decimal.NewFromFloat(openingBalance),
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	raw, ok, err := store.Get(ctx, l.key(KeyTransactions))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadLedger, err)
	}
	if ok {
		if err := json.Unmarshal(raw, &l.transactions); err != nil {
			return nil, fmt.Errorf("%w: decode transactions: %w", apperrors.ErrFailedToLoadLedger, err)
		}
	}
	for _, tx := range l.transactions {
		if tx.ID > l.lastID {
			l.lastID = tx.ID
		}
	}

	raw, ok, err = store.Get(ctx, l.key(KeyAvailableBalance))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadLedger, err)
	}
	if ok {
		if err := json.Unmarshal(raw, &l.balance); err != nil {
			return nil, fmt.Errorf("%w: decode balance: %w", apperrors.ErrFailedToLoadLedger, err)
		}
	}

	return l, nil
}

// Scope returns the key prefix the ledger persists under.
func (l *Ledger) Scope() string {
	return l.scope
}

// Balance returns the available balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance.InexactFloat64()
}

// Transactions returns a copy of the transaction history, newest first.
func (l *Ledger) Transactions() []model.FundsTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.FundsTransaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// AddFunds deposits amount. Deposits settle immediately.
func (l *Ledger) AddFunds(ctx context.Context, amount float64, paymentMethod string) (model.FundsTransaction, error) {
	if !validAmount(amount) {
		return model.FundsTransaction{}, apperrors.ErrInvalidAmount
	}
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.newTransaction(model.TransactionAddFunds, amount, model.StatusSuccess)
	tx.PaymentMethod = paymentMethod
	if err := l.commit(ctx, tx, l.balance.Add(decimal.NewFromFloat(amount))); err != nil {
		return model.FundsTransaction{}, err
	}
	return tx, nil
}

// WithdrawFunds requests a withdrawal of amount. The balance is reserved
// immediately and the transaction is recorded as Pending; there is no
// settlement step. Withdrawing exactly the full balance is allowed.
func (l *Ledger) WithdrawFunds(ctx context.Context, amount float64) (model.FundsTransaction, error) {
	if !validAmount(amount) {
		return model.FundsTransaction{}, apperrors.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	debit := decimal.NewFromFloat(amount)
	if debit.GreaterThan(l.balance) {
		l.log.Info().
			Str("scope", l.scope).
			Float64("amount", amount).
			Str("balance", l.balance.String()).
			Msg("withdrawal rejected")
		return model.FundsTransaction{}, apperrors.ErrInsufficientBalance
	}

	tx := l.newTransaction(model.TransactionWithdraw, amount, model.StatusPending)
	if err := l.commit(ctx, tx, l.balance.Sub(debit)); err != nil {
		return model.FundsTransaction{}, err
	}
	return tx, nil
}

// RecomputeTotals derives the invested amount, total portfolio value and
// aggregate P&L from the current balance and holdings.
func (l *Ledger) RecomputeTotals(holdings []model.Holding) model.FundsTotals {
	agg := valuation.Aggregate(holdings)
	balance := l.Balance()
	return model.FundsTotals{
		AvailableBalance: balance,
		InvestedAmount:   agg.TotalInvested,
		CurrentValue:     agg.TotalCurrentValue,
		TotalPortfolio:   balance + agg.TotalCurrentValue,
		ProfitLoss:       agg.TotalPnL,
	}
}

// newTransaction must be called with l.mu held.
func (l *Ledger) newTransaction(kind model.TransactionType, amount float64, status model.TransactionStatus) model.FundsTransaction {
	now := l.now()
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	return model.FundsTransaction{
		ID:     id,
		Date:   now.Format(model.DateLayout),
		Type:   kind,
		Amount: amount,
		Status: status,
	}
}

// commit must be called with l.mu held.
func (l *Ledger) commit(ctx context.Context, tx model.FundsTransaction, balance decimal.Decimal) error {
	transactions := make([]model.FundsTransaction, 0, len(l.transactions)+1)
	transactions = append(transactions, tx)
	transactions = append(transactions, l.transactions...)

	txJSON, err := json.Marshal(transactions)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToPersistLedger, err)
	}
	balanceJSON, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToPersistLedger, err)
	}

	err = l.store.PutAll(ctx, map[string][]byte{
		l.key(KeyTransactions):     txJSON,
		l.key(KeyAvailableBalance): balanceJSON,
	})
	if err != nil {
		l.log.Error().Err(err).Str("scope", l.scope).Int64("transactionId", tx.ID).Msg("failed to persist ledger")
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToPersistLedger, err)
	}

	l.transactions = transactions
	l.balance = balance
	l.lastID = tx.ID

	l.log.Info().
		Str("scope", l.scope).
		Int64("transactionId", tx.ID).
		Str("type", string(tx.Type)).
		Float64("amount", tx.Amount).
		Str("balance", balance.String()).
		Msg("ledger updated")
	return nil
}

func (l *Ledger) key(name string) string {
	if l.scope == "" {
		return name
	}
	return l.scope + ":" + name
}

func validAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0)
}
