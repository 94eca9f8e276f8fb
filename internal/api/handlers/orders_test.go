package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/testutil"
)

func TestOrderHandler_PlaceOrder(t *testing.T) {
	tests := []struct {
		name        string
		broker      *testutil.MockBroker
		body        string
		wantStatus  int
		wantError   string
		wantSubmits int
	}{
		{
			name:        "accepted order",
			broker:      testutil.NewMockBroker(),
			body:        `{"name":"INFY","qty":2,"price":1450,"mode":"BUY"}`,
			wantStatus:  http.StatusCreated,
			wantSubmits: 1,
		},
		{
			name:        "lowercase mode",
			broker:      testutil.NewMockBroker(),
			body:        `{"name":"INFY","qty":2,"price":1450,"mode":"sell"}`,
			wantStatus:  http.StatusCreated,
			wantSubmits: 1,
		},
		{
			name:       "missing instrument is not sent",
			broker:     testutil.NewMockBroker(),
			body:       `{"name":"","qty":5,"price":10,"mode":"BUY"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ErrMissingInstrument.Error(),
		},
		{
			name:       "zero quantity is not sent",
			broker:     testutil.NewMockBroker(),
			body:       `{"name":"INFY","qty":0,"price":10,"mode":"BUY"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ErrInvalidQuantity.Error(),
		},
		{
			name:       "unknown mode is not sent",
			broker:     testutil.NewMockBroker(),
			body:       `{"name":"INFY","qty":1,"price":10,"mode":"HOLD"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ErrInvalidMode.Error(),
		},
		{
			name:        "broker rejection carries its reason",
			broker:      testutil.NewMockBroker().WithOrderError(&apperrors.RejectedError{Status: 400, Reason: "Market closed"}),
			body:        `{"name":"INFY","qty":1,"price":10,"mode":"BUY"}`,
			wantStatus:  http.StatusUnprocessableEntity,
			wantError:   "Market closed",
			wantSubmits: 1,
		},
		{
			name:        "expired token",
			broker:      testutil.NewMockBroker().WithOrderError(apperrors.ErrAuthExpired),
			body:        `{"name":"INFY","qty":1,"price":10,"mode":"BUY"}`,
			wantStatus:  http.StatusUnauthorized,
			wantError:   apperrors.ErrAuthExpired.Error(),
			wantSubmits: 1,
		},
		{
			name:        "broker unreachable",
			broker:      testutil.NewMockBroker().WithOrderError(apperrors.ErrCollaboratorUnavailable),
			body:        `{"name":"INFY","qty":1,"price":10,"mode":"BUY"}`,
			wantStatus:  http.StatusServiceUnavailable,
			wantError:   apperrors.ErrCollaboratorUnavailable.Error(),
			wantSubmits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sess := setupServices(t, tt.broker)
			handler := NewOrderHandler(svc.Sessions, svc.Orders)

			req := testutil.NewJSONRequestWithURLParams(http.MethodPost, "/api/session/"+sess.ID+"/order", tt.body, sessionParams(sess.ID))
			w := httptest.NewRecorder()

			handler.PlaceOrder(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantError != "" {
				if body := decodeError(t, w); body.Error != tt.wantError {
					t.Errorf("Expected error %q, got %q", tt.wantError, body.Error)
				}
			}
			if n := len(tt.broker.Submitted()); n != tt.wantSubmits {
				t.Errorf("Expected %d broker calls, got %d", tt.wantSubmits, n)
			}
		})
	}
}

func TestOrderHandler_SubmissionInFlight(t *testing.T) {
	svc, sess := setupServices(t, testutil.NewMockBroker())
	handler := NewOrderHandler(svc.Sessions, svc.Orders)

	done, err := sess.Selection.BeginSubmission()
	if err != nil {
		t.Fatalf("BeginSubmission() returned unexpected error: %v", err)
	}
	defer done()

	body := `{"name":"INFY","qty":1,"price":10,"mode":"BUY"}`
	req := testutil.NewJSONRequestWithURLParams(http.MethodPost, "/api/session/"+sess.ID+"/order", body, sessionParams(sess.ID))
	w := httptest.NewRecorder()

	handler.PlaceOrder(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
	if n := len(svc.Broker.Submitted()); n != 0 {
		t.Errorf("Expected no broker call, got %d", n)
	}
}
