package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/broker"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/selection"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/valuation"
)

// OrderService submits orders to the broker on behalf of a session.
type OrderService struct {
	broker       broker.Client
	portfolio    *PortfolioService
	confirmDelay time.Duration
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

// NewOrderService creates an OrderService. confirmDelay is handed back to the
// dashboard as the pause before it hides a confirmed panel.
func NewOrderService(
	client broker.Client,
	portfolio *PortfolioService,
	confirmDelay time.Duration,
	m *metrics.Metrics,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		broker:       client,
		portfolio:    portfolio,
		confirmDelay: confirmDelay,
		metrics:      m,
		log:          log.With().Str("component", "orders").Logger(),
	}
}

// Submit validates order and sends it to the broker as a single request.
//
// Only one submission per session may be in flight; a concurrent call fails
// with ErrSubmissionInFlight. Validation runs before any network effect and
// checks, in order, the instrument, the quantity, the price and the mode.
// On success the panel the order came from is closed, which also drops its
// draft; a panel opened meanwhile by another request is left alone.
// On failure the selection and its draft are left as they were.
func (s *OrderService) Submit(ctx context.Context, sess *Session, order model.Order) (model.OrderReceipt, error) {
	return s.submit(ctx, sess, order, sess.Selection.State())
}

// submit sends order; from is the selection the order was built from.
func (s *OrderService) submit(ctx context.Context, sess *Session, order model.Order, from selection.State) (model.OrderReceipt, error) {
	done, err := sess.Selection.BeginSubmission()
	if err != nil {
		s.metrics.OrdersTotal.WithLabelValues(string(order.Mode), metrics.OutcomeBusy).Inc()
		return model.OrderReceipt{}, err
	}
	defer done()

	order.Name = strings.TrimSpace(order.Name)
	if err := ValidateOrder(order); err != nil {
		s.metrics.OrdersTotal.WithLabelValues(string(order.Mode), metrics.OutcomeInvalid).Inc()
		return model.OrderReceipt{}, err
	}

	if err := s.broker.NewOrder(ctx, sess.Token, order); err != nil {
		s.metrics.OrdersTotal.WithLabelValues(string(order.Mode), outcomeOf(err)).Inc()
		s.log.Warn().
			Err(err).
			Str("session", sess.ID).
			Str("instrument", order.Name).
			Str("mode", string(order.Mode)).
			Msg("order not accepted")
		return model.OrderReceipt{}, err
	}

	sess.Selection.CompleteSubmission(from)
	s.portfolio.InvalidateAccount(sess.AccountID)

	s.metrics.OrdersTotal.WithLabelValues(string(order.Mode), metrics.OutcomeAccepted).Inc()
	s.log.Info().
		Str("session", sess.ID).
		Str("instrument", order.Name).
		Str("mode", string(order.Mode)).
		Float64("qty", order.Qty).
		Float64("price", order.Price).
		Msg("order accepted")

	return model.OrderReceipt{
		Order:          order,
		Total:          valuation.Round(order.Qty * order.Price),
		ConfirmDelayMs: s.confirmDelay.Milliseconds(),
	}, nil
}

// SubmitDraft submits the draft of the session's open panel.
func (s *OrderService) SubmitDraft(ctx context.Context, sess *Session) (model.OrderReceipt, error) {
	from := sess.Selection.State()
	panel, mode, ok := selection.OpenPanel(from)
	if !ok {
		return model.OrderReceipt{}, apperrors.ErrPanelClosed
	}
	return s.submit(ctx, sess, model.Order{
		Name:  panel.Instrument.Name,
		Qty:   panel.Qty,
		Price: panel.Price,
		Mode:  mode,
	}, from)
}

// ValidateOrder checks order in submission order: instrument, quantity,
// price, mode. It returns the first violation.
func ValidateOrder(order model.Order) error {
	if strings.TrimSpace(order.Name) == "" {
		return apperrors.ErrMissingInstrument
	}
	if !positiveFinite(order.Qty) {
		return apperrors.ErrInvalidQuantity
	}
	if !positiveFinite(order.Price) {
		return apperrors.ErrInvalidPrice
	}
	if !order.Mode.Valid() {
		return apperrors.ErrInvalidMode
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func outcomeOf(err error) string {
	var rejected *apperrors.RejectedError
	switch {
	case errors.As(err, &rejected):
		return metrics.OutcomeRejected
	case errors.Is(err, apperrors.ErrAuthExpired):
		return metrics.OutcomeExpired
	case errors.Is(err, apperrors.ErrCollaboratorUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
