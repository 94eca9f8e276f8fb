package validation

import (
	"strings"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
)

// ValidateOpenPanel checks the instrument a buy or sell panel is opened for.
func ValidateOpenPanel(req request.OpenPanelRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	} else if len(req.Name) > 50 {
		errors["name"] = "name must be 50 characters or less"
	}

	if !finite(req.Price) || req.Price < 0 {
		errors["price"] = "price must not be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
