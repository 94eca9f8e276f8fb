package request

// CreateSessionRequest represents the request body for opening a dashboard session.
// Token is forwarded to the broker verbatim; AccountID selects the funds ledger.
type CreateSessionRequest struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
}
