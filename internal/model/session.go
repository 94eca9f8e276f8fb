package model

import "time"

// SessionInfo describes a dashboard session without exposing its token.
type SessionInfo struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Instrument is a quote the user opened a panel for.
type Instrument struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// SelectionView is the JSON rendering of the selection state.
// Panel is "none", "buy" or "sell"; Instrument and the draft are only
// present while a panel is open.
type SelectionView struct {
	Panel      string      `json:"panel"`
	Instrument *Instrument `json:"instrument,omitempty"`
	Qty        *float64    `json:"qty,omitempty"`
	Price      *float64    `json:"price,omitempty"`
	Busy       bool        `json:"busy"`
}
