package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/testutil"
)

// TestPortfolioService_Holdings tests the Holdings method.
//
// WHY: Holdings is the main read path of the dashboard. It must value every
// record, and must keep answering when the broker is down.
func TestPortfolioService_Holdings(t *testing.T) {
	ctx := context.Background()

	t.Run("values live holdings", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		// Execute
		view := svc.Portfolio.Holdings(ctx, sess)

		// Assert
		if view.Source != model.SourceLive {
			t.Errorf("Expected source live, got %q", view.Source)
		}
		if len(view.AllHoldings) != 3 {
			t.Fatalf("Expected 3 holdings, got %d", len(view.AllHoldings))
		}

		first := view.AllHoldings[0]
		if first.Valuation.CurrentValue != 1082.3 {
			t.Errorf("Expected current value 1082.3, got %v", first.Valuation.CurrentValue)
		}
		if first.Valuation.PnL != 6.2 {
			t.Errorf("Expected P&L 6.2, got %v", first.Valuation.PnL)
		}

		if view.Summary.TotalInvested != 4363.9 {
			t.Errorf("Expected total invested 4363.9, got %v", view.Summary.TotalInvested)
		}
		if view.Summary.TotalCurrentValue != 4747.75 {
			t.Errorf("Expected total current value 4747.75, got %v", view.Summary.TotalCurrentValue)
		}
		if view.Summary.TotalPnL != 383.85 {
			t.Errorf("Expected total P&L 383.85, got %v", view.Summary.TotalPnL)
		}
		if !view.Summary.IsProfit {
			t.Error("Expected portfolio to be in profit")
		}
	})

	t.Run("loss flag follows the record, not the P&L", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		view := svc.Portfolio.Holdings(ctx, sess)

		tata := view.AllHoldings[2]
		if !tata.Valuation.IsLoss {
			t.Error("Expected TATAPOWER to carry the intraday loss flag")
		}
		if !tata.Valuation.IsProfit {
			t.Error("Expected TATAPOWER to be profitable overall")
		}
	})

	t.Run("serves the cached snapshot when the broker fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		broker := testutil.NewMockBroker()
		svc := testutil.NewTestServices(t, db, broker)
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		svc.Portfolio.Holdings(ctx, sess)
		broker.WithReadError(apperrors.ErrCollaboratorUnavailable)

		view := svc.Portfolio.Holdings(ctx, sess)

		if view.Source != model.SourceCache {
			t.Errorf("Expected source cache, got %q", view.Source)
		}
		if len(view.AllHoldings) != 3 {
			t.Errorf("Expected 3 cached holdings, got %d", len(view.AllHoldings))
		}
		if got := promtestutil.ToFloat64(svc.Metrics.CollaboratorFallbacks.WithLabelValues("holdings", "cache")); got != 1 {
			t.Errorf("Expected 1 cache fallback, got %v", got)
		}
	})

	t.Run("serves an empty snapshot when nothing was cached", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		broker := testutil.NewMockBroker().WithReadError(apperrors.ErrAuthExpired)
		svc := testutil.NewTestServices(t, db, broker)
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		view := svc.Portfolio.Holdings(ctx, sess)

		if view.Source != model.SourceEmpty {
			t.Errorf("Expected source empty, got %q", view.Source)
		}
		if view.AllHoldings == nil || len(view.AllHoldings) != 0 {
			t.Errorf("Expected an empty non-nil list, got %v", view.AllHoldings)
		}
		if view.Summary.TotalInvested != 0 || view.Summary.PnLPercent != 0 {
			t.Errorf("Expected zero aggregate, got %+v", view.Summary)
		}
	})

	t.Run("cache is per session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		broker := testutil.NewMockBroker()
		svc := testutil.NewTestServices(t, db, broker)
		warm := testutil.CreateSession(t, svc.Sessions, "acct-1")
		cold := testutil.CreateSession(t, svc.Sessions, "acct-1")

		svc.Portfolio.Holdings(ctx, warm)
		broker.WithReadError(errors.New("boom"))

		if src := svc.Portfolio.Holdings(ctx, cold).Source; src != model.SourceEmpty {
			t.Errorf("Expected cold session to get an empty snapshot, got %q", src)
		}
	})
}

func TestPortfolioService_Positions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	broker := testutil.NewMockBroker()
	broker.PositionRecords = append(broker.PositionRecords, model.Position{
		Holding: model.Holding{Name: "ITC", Qty: 10, Avg: 200, Price: 210},
	})
	svc := testutil.NewTestServices(t, db, broker)
	sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

	view := svc.Portfolio.Positions(ctx, sess)

	if len(view.AllPositions) != 3 {
		t.Fatalf("Expected 3 positions, got %d", len(view.AllPositions))
	}
	if view.AllPositions[0].Product != "CNC" {
		t.Errorf("Expected product CNC, got %q", view.AllPositions[0].Product)
	}
	if view.AllPositions[2].Product != service.ProductNotAvailable {
		t.Errorf("Expected missing product to read %q, got %q", service.ProductNotAvailable, view.AllPositions[2].Product)
	}
	if view.AllPositions[2].Valuation.DayChangeLabel != "N/A" {
		t.Errorf("Expected missing day change to read N/A, got %q", view.AllPositions[2].Valuation.DayChangeLabel)
	}
	if view.AllPositions[0].Valuation.PnL != -7.84 {
		t.Errorf("Expected EVEREADY P&L -7.84, got %v", view.AllPositions[0].Valuation.PnL)
	}
}

func TestPortfolioService_Orders(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	broker := testutil.NewMockBroker().WithOrders(
		model.Order{Name: "INFY", Qty: 3, Price: 1450.5, Mode: model.ModeBuy},
		model.Order{Name: "TCS", Qty: 1, Price: 3300.1, Mode: model.ModeSell},
	)
	svc := testutil.NewTestServices(t, db, broker)
	sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

	view := svc.Portfolio.Orders(ctx, sess)

	if len(view.AllOrders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(view.AllOrders))
	}
	if view.AllOrders[0].Total != 4351.5 {
		t.Errorf("Expected total 4351.5, got %v", view.AllOrders[0].Total)
	}
	for _, o := range view.AllOrders {
		if o.Status != service.OrderStatusCompleted {
			t.Errorf("Expected status %q, got %q", service.OrderStatusCompleted, o.Status)
		}
	}
}

func TestPortfolioService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("lists the last orders newest first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		var orders []model.Order
		for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
			orders = append(orders, model.Order{Name: name, Qty: 1, Price: 10, Mode: model.ModeBuy})
		}
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker().WithOrders(orders...))
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		summary := svc.Portfolio.Summary(ctx, sess)

		if len(summary.RecentOrders) != service.RecentOrdersLimit {
			t.Fatalf("Expected %d recent orders, got %d", service.RecentOrdersLimit, len(summary.RecentOrders))
		}
		want := []string{"G", "F", "E", "D", "C"}
		for i, name := range want {
			if summary.RecentOrders[i].Name != name {
				t.Errorf("RecentOrders[%d] = %q, want %q", i, summary.RecentOrders[i].Name, name)
			}
		}
		if summary.HoldingsCount != 3 {
			t.Errorf("Expected 3 holdings, got %d", summary.HoldingsCount)
		}
		if summary.Source != model.SourceLive {
			t.Errorf("Expected source live, got %q", summary.Source)
		}
	})

	t.Run("fewer orders than the limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		summary := svc.Portfolio.Summary(ctx, sess)

		if summary.RecentOrders == nil || len(summary.RecentOrders) != 0 {
			t.Errorf("Expected an empty non-nil list, got %v", summary.RecentOrders)
		}
	})

	t.Run("reports the least fresh source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		broker := testutil.NewMockBroker().WithReadError(apperrors.ErrCollaboratorUnavailable)
		svc := testutil.NewTestServices(t, db, broker)
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		summary := svc.Portfolio.Summary(ctx, sess)

		if summary.Source != model.SourceEmpty {
			t.Errorf("Expected source empty, got %q", summary.Source)
		}
	})
}

func TestPortfolioService_InvalidateAccount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	broker := testutil.NewMockBroker()
	svc := testutil.NewTestServices(t, db, broker)
	mine := testutil.CreateSession(t, svc.Sessions, "acct-1")
	theirs := testutil.CreateSession(t, svc.Sessions, "acct-2")

	svc.Portfolio.Holdings(ctx, mine)
	svc.Portfolio.Holdings(ctx, theirs)
	broker.WithReadError(apperrors.ErrCollaboratorUnavailable)

	svc.Portfolio.InvalidateAccount("acct-1")

	if src := svc.Portfolio.Holdings(ctx, mine).Source; src != model.SourceEmpty {
		t.Errorf("Expected invalidated session to fall back to empty, got %q", src)
	}
	if src := svc.Portfolio.Holdings(ctx, theirs).Source; src != model.SourceCache {
		t.Errorf("Expected other account to keep its cache, got %q", src)
	}

	svc.Portfolio.Forget(theirs.ID)
	if src := svc.Portfolio.Holdings(ctx, theirs).Source; src != model.SourceEmpty {
		t.Errorf("Expected forgotten session to fall back to empty, got %q", src)
	}
}

func TestPortfolioService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
	sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if view := svc.Portfolio.Holdings(ctx, sess); len(view.AllHoldings) != 3 {
				t.Errorf("Expected 3 holdings, got %d", len(view.AllHoldings))
			}
		}()
	}
	wg.Wait()

	if n := svc.Broker.ReadCount(); n < 1 || n > 20 {
		t.Errorf("Expected between 1 and 20 broker reads, got %d", n)
	}
}

func TestPortfolioService_RefreshJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	broker := testutil.NewMockBroker()
	svc := testutil.NewTestServices(t, db, broker)
	sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
	testutil.CreateSession(t, svc.Sessions, "acct-2")

	job := svc.Portfolio.RefreshJob()
	if job.Name() != "snapshot-refresh" {
		t.Errorf("Expected job name snapshot-refresh, got %q", job.Name())
	}

	if err := job.Run(); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if got := promtestutil.ToFloat64(svc.Metrics.SnapshotRefreshes.WithLabelValues("complete")); got != 1 {
		t.Errorf("Expected 1 complete refresh, got %v", got)
	}

	// The refreshed snapshot is what a failing read falls back to.
	broker.WithReadError(apperrors.ErrCollaboratorUnavailable)
	if src := svc.Portfolio.Positions(context.Background(), sess).Source; src != model.SourceCache {
		t.Errorf("Expected warmed cache, got %q", src)
	}

	if err := job.Run(); err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}
	if got := promtestutil.ToFloat64(svc.Metrics.SnapshotRefreshes.WithLabelValues("partial")); got != 1 {
		t.Errorf("Expected 1 partial refresh, got %v", got)
	}
}
