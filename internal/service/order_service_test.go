package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/selection"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/testutil"
)

// TestOrderService_Submit tests order submission.
//
// WHY: Submitting an order is the only write against the broker. Invalid input
// must never reach the network, and a failed submission must leave the panel
// exactly as the user left it.
func TestOrderService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted order closes the panel", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
		sess.Selection.OpenBuy(model.Instrument{Name: "INFY", Price: 1450})
		if _, err := sess.Selection.UpdateDraft(4, 1450); err != nil {
			t.Fatalf("UpdateDraft() returned unexpected error: %v", err)
		}

		// Execute
		receipt, err := svc.Orders.Submit(ctx, sess, model.Order{Name: " INFY ", Qty: 4, Price: 1450.125, Mode: model.ModeBuy})

		// Assert
		if err != nil {
			t.Fatalf("Submit() returned unexpected error: %v", err)
		}
		if receipt.Order.Name != "INFY" {
			t.Errorf("Expected trimmed instrument INFY, got %q", receipt.Order.Name)
		}
		if receipt.Total != 5800.5 {
			t.Errorf("Expected total 5800.5, got %v", receipt.Total)
		}
		if receipt.ConfirmDelayMs != testutil.ConfirmDelay.Milliseconds() {
			t.Errorf("Expected confirm delay %d, got %d", testutil.ConfirmDelay.Milliseconds(), receipt.ConfirmDelayMs)
		}
		if _, ok := sess.Selection.State().(selection.Closed); !ok {
			t.Errorf("Expected panel to be closed, got %T", sess.Selection.State())
		}
		if sess.Selection.Busy() {
			t.Error("Expected busy flag to be cleared")
		}

		submitted := svc.Broker.Submitted()
		if len(submitted) != 1 {
			t.Fatalf("Expected exactly 1 broker call, got %d", len(submitted))
		}
		if submitted[0].Mode != model.ModeBuy || submitted[0].Qty != 4 {
			t.Errorf("Unexpected submitted order: %+v", submitted[0])
		}
		if got := promtestutil.ToFloat64(svc.Metrics.OrdersTotal.WithLabelValues("BUY", "accepted")); got != 1 {
			t.Errorf("Expected 1 accepted order, got %v", got)
		}
	})

	validation := []struct {
		name  string
		order model.Order
		want  error
	}{
		{"missing instrument", model.Order{Name: "", Qty: 5, Price: 10, Mode: model.ModeBuy}, apperrors.ErrMissingInstrument},
		{"blank instrument", model.Order{Name: "   ", Qty: 5, Price: 10, Mode: model.ModeBuy}, apperrors.ErrMissingInstrument},
		{"instrument checked before quantity", model.Order{Name: "", Qty: 0, Price: 0, Mode: "HOLD"}, apperrors.ErrMissingInstrument},
		{"zero quantity", model.Order{Name: "INFY", Qty: 0, Price: 10, Mode: model.ModeBuy}, apperrors.ErrInvalidQuantity},
		{"negative quantity", model.Order{Name: "INFY", Qty: -2, Price: 10, Mode: model.ModeSell}, apperrors.ErrInvalidQuantity},
		{"NaN quantity", model.Order{Name: "INFY", Qty: math.NaN(), Price: 10, Mode: model.ModeBuy}, apperrors.ErrInvalidQuantity},
		{"quantity checked before price", model.Order{Name: "INFY", Qty: 0, Price: 0, Mode: model.ModeBuy}, apperrors.ErrInvalidQuantity},
		{"zero price", model.Order{Name: "INFY", Qty: 1, Price: 0, Mode: model.ModeBuy}, apperrors.ErrInvalidPrice},
		{"infinite price", model.Order{Name: "INFY", Qty: 1, Price: math.Inf(1), Mode: model.ModeBuy}, apperrors.ErrInvalidPrice},
		{"unknown mode", model.Order{Name: "INFY", Qty: 1, Price: 10, Mode: "HOLD"}, apperrors.ErrInvalidMode},
	}
	for _, tc := range validation {
		t.Run("rejects "+tc.name+" without a broker call", func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
			sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
			sess.Selection.OpenBuy(model.Instrument{Name: "INFY", Price: 10})

			_, err := svc.Orders.Submit(ctx, sess, tc.order)

			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if n := len(svc.Broker.Submitted()); n != 0 {
				t.Errorf("Expected no broker call, got %d", n)
			}
			if _, ok := sess.Selection.State().(selection.BuyOpen); !ok {
				t.Errorf("Expected buy panel to stay open, got %T", sess.Selection.State())
			}
		})
	}

	t.Run("broker rejection keeps the panel and draft", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		rejection := &apperrors.RejectedError{Status: 400, Reason: "Insufficient quantity"}
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker().WithOrderError(rejection))
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
		sess.Selection.OpenSell(model.Instrument{Name: "HDFCBANK", Price: 1522.35})
		if _, err := sess.Selection.UpdateDraft(7, 1500); err != nil {
			t.Fatalf("UpdateDraft() returned unexpected error: %v", err)
		}

		_, err := svc.Orders.Submit(ctx, sess, model.Order{Name: "HDFCBANK", Qty: 7, Price: 1500, Mode: model.ModeSell})

		var rejected *apperrors.RejectedError
		if !errors.As(err, &rejected) || rejected.Reason != "Insufficient quantity" {
			t.Fatalf("Expected the broker's rejection reason, got %v", err)
		}
		panel, mode, ok := selection.OpenPanel(sess.Selection.State())
		if !ok || mode != model.ModeSell {
			t.Fatalf("Expected sell panel to stay open, got %T", sess.Selection.State())
		}
		if panel.Qty != 7 || panel.Price != 1500 {
			t.Errorf("Expected draft 7 @ 1500 to be kept, got %v @ %v", panel.Qty, panel.Price)
		}
		if sess.Selection.Busy() {
			t.Error("Expected busy flag to be cleared")
		}
		if got := promtestutil.ToFloat64(svc.Metrics.OrdersTotal.WithLabelValues("SELL", "rejected")); got != 1 {
			t.Errorf("Expected 1 rejected order, got %v", got)
		}
	})

	t.Run("expired token is reported", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker().WithOrderError(apperrors.ErrAuthExpired))
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		_, err := svc.Orders.Submit(ctx, sess, model.Order{Name: "INFY", Qty: 1, Price: 10, Mode: model.ModeBuy})

		if !errors.Is(err, apperrors.ErrAuthExpired) {
			t.Errorf("Expected ErrAuthExpired, got %v", err)
		}
		if got := promtestutil.ToFloat64(svc.Metrics.OrdersTotal.WithLabelValues("BUY", "auth_expired")); got != 1 {
			t.Errorf("Expected 1 expired order, got %v", got)
		}
	})

	t.Run("second submission while one is in flight is refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		gate := make(chan struct{})
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker().WithGate(gate))
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
		order := model.Order{Name: "INFY", Qty: 1, Price: 10, Mode: model.ModeBuy}

		first := make(chan error, 1)
		go func() {
			_, err := svc.Orders.Submit(ctx, sess, order)
			first <- err
		}()

		deadline := time.Now().Add(2 * time.Second)
		for !sess.Selection.Busy() {
			if time.Now().After(deadline) {
				t.Fatal("first submission never started")
			}
			time.Sleep(time.Millisecond)
		}

		_, err := svc.Orders.Submit(ctx, sess, order)
		if !errors.Is(err, apperrors.ErrSubmissionInFlight) {
			t.Errorf("Expected ErrSubmissionInFlight, got %v", err)
		}

		close(gate)
		if err := <-first; err != nil {
			t.Errorf("First submission returned unexpected error: %v", err)
		}
		if n := len(svc.Broker.Submitted()); n != 1 {
			t.Errorf("Expected exactly 1 broker call, got %d", n)
		}
	})

	t.Run("panel opened while the order is in flight stays open", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		gate := make(chan struct{})
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker().WithGate(gate))
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
		sess.Selection.OpenBuy(model.Instrument{Name: "INFY", Price: 1450})

		// Execute
		result := make(chan error, 1)
		go func() {
			_, err := svc.Orders.SubmitDraft(ctx, sess)
			result <- err
		}()

		deadline := time.Now().Add(2 * time.Second)
		for !sess.Selection.Busy() {
			if time.Now().After(deadline) {
				t.Fatal("submission never started")
			}
			time.Sleep(time.Millisecond)
		}
		sess.Selection.OpenSell(model.Instrument{Name: "TCS", Price: 3194.8})
		close(gate)

		// Assert
		if err := <-result; err != nil {
			t.Fatalf("SubmitDraft() returned unexpected error: %v", err)
		}
		st, ok := sess.Selection.State().(selection.SellOpen)
		if !ok {
			t.Fatalf("Expected the sell panel to stay open, got %T", sess.Selection.State())
		}
		if st.Panel.Instrument.Name != "TCS" {
			t.Errorf("Expected TCS panel, got %q", st.Panel.Instrument.Name)
		}
	})

	t.Run("accepted order invalidates the account's cached snapshots", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		broker := testutil.NewMockBroker()
		svc := testutil.NewTestServices(t, db, broker)
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
		sibling := testutil.CreateSession(t, svc.Sessions, "acct-1")

		svc.Portfolio.Orders(ctx, sibling)
		if _, err := svc.Orders.Submit(ctx, sess, model.Order{Name: "INFY", Qty: 1, Price: 10, Mode: model.ModeBuy}); err != nil {
			t.Fatalf("Submit() returned unexpected error: %v", err)
		}

		// A stale pre-order snapshot must not be served as a fallback.
		broker.WithReadError(apperrors.ErrCollaboratorUnavailable)
		if src := svc.Portfolio.Orders(ctx, sibling).Source; src != model.SourceEmpty {
			t.Errorf("Expected the sibling cache to be dropped, got %q", src)
		}
	})
}

func TestOrderService_SubmitDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("submits the open panel's draft", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")
		sess.Selection.OpenSell(model.Instrument{Name: "TATAPOWER", Price: 124.15})

		receipt, err := svc.Orders.SubmitDraft(ctx, sess)
		if err != nil {
			t.Fatalf("SubmitDraft() returned unexpected error: %v", err)
		}

		want := model.Order{Name: "TATAPOWER", Qty: selection.DefaultQuantity, Price: 124.15, Mode: model.ModeSell}
		if receipt.Order != want {
			t.Errorf("Expected %+v, got %+v", want, receipt.Order)
		}
	})

	t.Run("fails when no panel is open", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockBroker())
		sess := testutil.CreateSession(t, svc.Sessions, "acct-1")

		_, err := svc.Orders.SubmitDraft(ctx, sess)

		if !errors.Is(err, apperrors.ErrPanelClosed) {
			t.Errorf("Expected ErrPanelClosed, got %v", err)
		}
		if n := len(svc.Broker.Submitted()); n != 0 {
			t.Errorf("Expected no broker call, got %d", n)
		}
	})
}

func TestValidateOrder(t *testing.T) {
	if err := service.ValidateOrder(model.Order{Name: "INFY", Qty: 0.5, Price: 0.01, Mode: model.ModeSell}); err != nil {
		t.Errorf("Expected fractional order to be valid, got %v", err)
	}
}
