package validation

import (
	"strings"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
)

// MaxAccountIDLength bounds the account id, which becomes part of the ledger store keys.
const MaxAccountIDLength = 64

// ValidateCreateSession checks the token and account id of a new session.
func ValidateCreateSession(req request.CreateSessionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Token) == "" {
		errors["token"] = "token is required"
	}

	if len(req.AccountID) > MaxAccountIDLength {
		errors["accountId"] = "accountId must be 64 characters or less"
	} else if strings.ContainsAny(req.AccountID, ": \t\n") {
		errors["accountId"] = "accountId must not contain whitespace or ':'"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
