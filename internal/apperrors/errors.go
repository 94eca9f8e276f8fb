package apperrors

import (
	"errors"
	"fmt"
)

// Domain entity errors represent missing entities in the system.
var (
	// ErrSessionNotFound indicates that a dashboard session with the given ID does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrPanelClosed indicates an operation that needs an open buy or sell panel
	// was issued while no panel is open.
	ErrPanelClosed = errors.New("no order panel is open")
)

// Validation errors are recovered locally: the user corrects the input and no
// state is mutated.
var (
	// ErrInvalidAmount indicates a funds amount that is not a positive finite number.
	ErrInvalidAmount = errors.New("please enter a valid amount")

	// ErrMissingInstrument indicates an order without an instrument name.
	ErrMissingInstrument = errors.New("instrument name is missing")

	// ErrInvalidQuantity indicates an order quantity that is not a positive finite number.
	ErrInvalidQuantity = errors.New("please enter a valid quantity (greater than 0)")

	// ErrInvalidPrice indicates an order price that is not a positive finite number.
	ErrInvalidPrice = errors.New("please enter a valid price (greater than 0)")

	// ErrInvalidMode indicates an order mode other than BUY or SELL.
	ErrInvalidMode = errors.New("order mode must be BUY or SELL")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")
)

// Business logic errors represent constraint violations.
var (
	// ErrInsufficientBalance indicates a withdrawal larger than the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSubmissionInFlight indicates an order submission while a previous one
	// for the same panel has not resolved yet.
	ErrSubmissionInFlight = errors.New("an order submission is already in progress")
)

// Collaborator errors describe failures of the external brokerage backend.
var (
	// ErrCollaboratorUnavailable indicates a network failure or timeout talking to the broker.
	ErrCollaboratorUnavailable = errors.New("broker unavailable")

	// ErrAuthExpired indicates the broker rejected the session token.
	ErrAuthExpired = errors.New("session expired, please login again")
)

// Operation failure errors represent system-level failures.
var (
	ErrFailedToPersistLedger  = errors.New("failed to persist funds ledger")
	ErrFailedToLoadLedger     = errors.New("failed to load funds ledger")
	ErrFailedToCreateSession  = errors.New("failed to create session")
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)

// RejectedError carries the broker's human-readable reason for refusing a request.
// The reason is surfaced to the user verbatim.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("broker rejected request (%d): %s", e.Status, e.Reason)
}
