package request

// AddFundsRequest represents the request body for a deposit.
type AddFundsRequest struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

// WithdrawFundsRequest represents the request body for a withdrawal.
type WithdrawFundsRequest struct {
	Amount float64 `json:"amount"`
}
