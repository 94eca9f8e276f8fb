package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/valuation"
)

// Fund distribution chart series names.
const (
	DistributionAvailable = "Available Balance"
	DistributionInvested  = "Invested Amount"
)

// FundsService handles deposits, withdrawals and the funds overview of a session.
// All balance changes go through the session's ledger.
type FundsService struct {
	portfolio *PortfolioService
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewFundsService creates a FundsService. portfolio supplies the holdings the
// totals are derived from.
func NewFundsService(portfolio *PortfolioService, m *metrics.Metrics, log zerolog.Logger) *FundsService {
	return &FundsService{
		portfolio: portfolio,
		metrics:   m,
		log:       log.With().Str("component", "funds").Logger(),
	}
}

// AddFunds deposits amount into the session's ledger.
func (s *FundsService) AddFunds(ctx context.Context, sess *Session, amount float64, paymentMethod string) (model.FundsTransaction, error) {
	tx, err := sess.Ledger.AddFunds(ctx, amount, paymentMethod)
	s.record(model.TransactionAddFunds, err)
	return tx, err
}

// WithdrawFunds withdraws amount from the session's ledger.
func (s *FundsService) WithdrawFunds(ctx context.Context, sess *Session, amount float64) (model.FundsTransaction, error) {
	tx, err := sess.Ledger.WithdrawFunds(ctx, amount)
	s.record(model.TransactionWithdraw, err)
	return tx, err
}

// Overview returns the balance, the totals derived from the current holdings,
// the transaction history and the fund distribution series.
func (s *FundsService) Overview(ctx context.Context, sess *Session) model.FundsView {
	holdings, source := s.portfolio.HoldingsSnapshot(ctx, sess)

	totals := sess.Ledger.RecomputeTotals(holdings)
	totals = model.FundsTotals{
		AvailableBalance: valuation.Round(totals.AvailableBalance),
		InvestedAmount:   valuation.Round(totals.InvestedAmount),
		CurrentValue:     valuation.Round(totals.CurrentValue),
		TotalPortfolio:   valuation.Round(totals.TotalPortfolio),
		ProfitLoss:       valuation.Round(totals.ProfitLoss),
	}

	txs := sess.Ledger.Transactions()
	lines := make([]model.TransactionLine, len(txs))
	for i, tx := range txs {
		lines[i] = model.TransactionLine{FundsTransaction: tx, AmountDisplay: valuation.Display(tx.Amount)}
	}

	distribution := []model.DistributionSlice{}
	for _, slice := range []model.DistributionSlice{
		{Name: DistributionAvailable, Price: totals.AvailableBalance},
		{Name: DistributionInvested, Price: totals.InvestedAmount},
	} {
		if slice.Price > 0 {
			distribution = append(distribution, slice)
		}
	}

	return model.FundsView{
		FundsTotals: totals,
		Display: map[string]string{
			"availableBalance": valuation.Display(totals.AvailableBalance),
			"investedAmount":   valuation.Display(totals.InvestedAmount),
			"currentValue":     valuation.Display(totals.CurrentValue),
			"totalPortfolio":   valuation.Display(totals.TotalPortfolio),
			"profitLoss":       valuation.Display(totals.ProfitLoss),
		},
		Transactions: lines,
		Distribution: distribution,
		Source:       source,
	}
}

func (s *FundsService) record(kind model.TransactionType, err error) {
	outcome := metrics.OutcomeAccepted
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrInvalidAmount):
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.FundsOperations.WithLabelValues(string(kind), outcome).Inc()
}
