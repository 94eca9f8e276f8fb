package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/broker"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/valuation"
)

const (
	resourceHoldings  = "holdings"
	resourcePositions = "positions"
	resourceOrders    = "orders"
)

const (
	// RecentOrdersLimit is how many orders the summary shows.
	RecentOrdersLimit = 5
	// OrderStatusCompleted is the display status of every reported order.
	OrderStatusCompleted = "Completed"
	// ProductNotAvailable is shown for positions without a product type.
	ProductNotAvailable = "N/A"
)

// refreshConcurrency bounds how many sessions a refresh run fetches at once.
const refreshConcurrency = 4

// PortfolioService serves the read-only portfolio views: holdings, positions,
// orders and the summary.
//
// Reads are best-effort. A live broker answer is cached per session; when the
// broker cannot be reached the last cached snapshot is served instead, or an
// empty one when nothing was cached. The view's Source tells which it was.
// Read paths never return an error.
type PortfolioService struct {
	broker   broker.Client
	sessions *SessionService
	metrics  *metrics.Metrics
	log      zerolog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]any
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(client broker.Client, sessions *SessionService, m *metrics.Metrics, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		broker:   client,
		sessions: sessions,
		metrics:  m,
		log:      log.With().Str("component", "portfolio").Logger(),
		cache:    make(map[string]any),
	}
}

// Holdings returns the session's holdings with their valuations and aggregate.
func (s *PortfolioService) Holdings(ctx context.Context, sess *Session) model.HoldingsView {
	records, source := s.HoldingsSnapshot(ctx, sess)

	holdings := make([]model.ValuedHolding, len(records))
	for i, r := range records {
		holdings[i] = model.ValuedHolding{
			Holding:   r,
			Valuation: valuation.RoundValuation(valuation.ValuateRecord(r)),
		}
	}

	return model.HoldingsView{
		AllHoldings: holdings,
		Summary:     valuation.RoundAggregate(valuation.Aggregate(records)),
		Source:      source,
	}
}

// HoldingsSnapshot returns the raw holding records, unrounded.
func (s *PortfolioService) HoldingsSnapshot(ctx context.Context, sess *Session) ([]model.Holding, model.SnapshotSource) {
	return fetchSnapshot(ctx, s, sess, resourceHoldings, s.broker.Holdings)
}

// Positions returns the session's positions with their valuations and aggregate.
func (s *PortfolioService) Positions(ctx context.Context, sess *Session) model.PositionsView {
	records, source := fetchSnapshot(ctx, s, sess, resourcePositions, s.broker.Positions)

	positions := make([]model.ValuedPosition, len(records))
	for i, p := range records {
		if p.Product == "" {
			p.Product = ProductNotAvailable
		}
		positions[i] = model.ValuedPosition{
			Position:  p,
			Valuation: valuation.RoundValuation(valuation.ValuateRecord(p.Holding)),
		}
	}

	return model.PositionsView{
		AllPositions: positions,
		Summary:      valuation.RoundAggregate(valuation.AggregatePositions(records)),
		Source:       source,
	}
}

// Orders returns the session's orders with their totals.
func (s *PortfolioService) Orders(ctx context.Context, sess *Session) model.OrdersView {
	records, source := fetchSnapshot(ctx, s, sess, resourceOrders, s.broker.Orders)

	orders := make([]model.OrderLine, len(records))
	for i, o := range records {
		orders[i] = model.OrderLine{
			Order:  o,
			Total:  valuation.Round(o.Qty * o.Price),
			Status: OrderStatusCompleted,
		}
	}
	return model.OrdersView{AllOrders: orders, Source: source}
}

// Summary returns the holdings aggregate and the most recent orders, newest
// first. Holdings and orders are fetched concurrently.
func (s *PortfolioService) Summary(ctx context.Context, sess *Session) model.Summary {
	var (
		holdings               []model.Holding
		orders                 []model.Order
		holdingsSrc, ordersSrc model.SnapshotSource
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		holdings, holdingsSrc = s.HoldingsSnapshot(gctx, sess)
		return nil
	})
	g.Go(func() error {
		orders, ordersSrc = fetchSnapshot(gctx, s, sess, resourceOrders, s.broker.Orders)
		return nil
	})
	_ = g.Wait()

	n := min(len(orders), RecentOrdersLimit)
	recent := make([]model.Order, 0, n)
	for i := len(orders) - 1; i >= len(orders)-n; i-- {
		recent = append(recent, orders[i])
	}

	return model.Summary{
		HoldingsCount: len(holdings),
		Holdings:      valuation.RoundAggregate(valuation.Aggregate(holdings)),
		RecentOrders:  recent,
		Source:        worstSource(holdingsSrc, ordersSrc),
	}
}

// InvalidateAccount drops the cached holdings and orders of every session of
// accountID. Called after the broker accepted an order.
func (s *PortfolioService) InvalidateAccount(accountID string) {
	for _, sess := range s.sessions.Sessions() {
		if sess.AccountID != accountID {
			continue
		}
		s.mu.Lock()
		delete(s.cache, cacheKey(sess.ID, resourceHoldings))
		delete(s.cache, cacheKey(sess.ID, resourcePositions))
		delete(s.cache, cacheKey(sess.ID, resourceOrders))
		s.mu.Unlock()
	}
}

// Forget drops every cached snapshot of the session.
func (s *PortfolioService) Forget(sessionID string) {
	prefix := sessionID + ":"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache {
		if strings.HasPrefix(key, prefix) {
			delete(s.cache, key)
		}
	}
}

// Refresh fetches fresh snapshots for every open session. It reports how many
// sessions were fully refreshed from the broker.
func (s *PortfolioService) Refresh(ctx context.Context) (refreshed, total int) {
	sessions := s.sessions.Sessions()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, sess := range sessions {
		g.Go(func() error {
			_, hs := s.HoldingsSnapshot(gctx, sess)
			_, ps := fetchSnapshot(gctx, s, sess, resourcePositions, s.broker.Positions)
			_, os := fetchSnapshot(gctx, s, sess, resourceOrders, s.broker.Orders)
			if worstSource(hs, ps, os) == model.SourceLive {
				mu.Lock()
				refreshed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return refreshed, len(sessions)
}

// RefreshJob returns the scheduled job that keeps snapshots warm.
func (s *PortfolioService) RefreshJob() *RefreshJob {
	return &RefreshJob{portfolio: s}
}

// RefreshJob adapts PortfolioService.Refresh to the scheduler.
type RefreshJob struct {
	portfolio *PortfolioService
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string { return "snapshot-refresh" }

// Run implements scheduler.Job.
func (j *RefreshJob) Run() error {
	refreshed, total := j.portfolio.Refresh(context.Background())

	outcome := "complete"
	if refreshed < total {
		outcome = "partial"
	}
	j.portfolio.metrics.SnapshotRefreshes.WithLabelValues(outcome).Inc()
	j.portfolio.log.Debug().Int("refreshed", refreshed).Int("sessions", total).Msg("snapshots refreshed")
	return nil
}

// fetchSnapshot reads one resource live, collapsing concurrent identical reads
// of a session, and falls back to the cached snapshot on failure.
func fetchSnapshot[T any](
	ctx context.Context,
	s *PortfolioService,
	sess *Session,
	resource string,
	live func(context.Context, string) ([]T, error),
) ([]T, model.SnapshotSource) {
	key := cacheKey(sess.ID, resource)

	v, err, _ := s.group.Do(key, func() (any, error) {
		records, err := live(ctx, sess.Token)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []T{}
		}
		s.mu.Lock()
		s.cache[key] = records
		s.mu.Unlock()
		return records, nil
	})
	if err == nil {
		return slices.Clone(v.([]T)), model.SourceLive
	}

	records, source := []T{}, model.SourceEmpty
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		records, source = slices.Clone(cached.([]T)), model.SourceCache
	}

	s.metrics.CollaboratorFallbacks.WithLabelValues(resource, string(source)).Inc()
	s.log.Warn().
		Err(err).
		Str("session", sess.ID).
		Str("resource", resource).
		Str("source", string(source)).
		Msg("broker read failed, serving fallback")
	return records, source
}

func cacheKey(sessionID, resource string) string {
	return sessionID + ":" + resource
}

// worstSource returns the least fresh of sources: live, then cache, then empty.
func worstSource(sources ...model.SnapshotSource) model.SnapshotSource {
	rank := map[model.SnapshotSource]int{model.SourceLive: 0, model.SourceCache: 1, model.SourceEmpty: 2}
	worst := model.SourceLive
	for _, src := range sources {
		if rank[src] > rank[worst] {
			worst = src
		}
	}
	return worst
}
