package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/testutil"
)

const unknownSessionID = "550e8400-e29b-41d4-a716-446655440000"

// setupServices wires a test stack and opens one session on acct-1.
func setupServices(t *testing.T, broker *testutil.MockBroker) (*testutil.Services, *service.Session) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, broker)
	return svc, testutil.CreateSession(t, svc.Sessions, "acct-1")
}

func sessionParams(id string) map[string]string {
	return map[string]string{"uuid": id}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", w.Body.String(), err)
	}
	return body
}
