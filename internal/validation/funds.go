package validation

import (
	"fmt"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
)

// ValidPaymentMethod lists the payment methods a deposit may name.
var ValidPaymentMethod = map[string]bool{
	"UPI": true, "Bank Transfer": true, "Credit Card": true, "Debit Card": true,
}

// ValidateAddFunds checks the payment method of a deposit. An empty method
// is allowed and defaults to UPI in the ledger. The amount is checked by the
// ledger itself.
func ValidateAddFunds(req request.AddFundsRequest) error {
	errors := make(map[string]string)

	if req.PaymentMethod != "" && !ValidPaymentMethod[req.PaymentMethod] {
		errors["paymentMethod"] = fmt.Sprintf("invalid payment method: %s", req.PaymentMethod)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
