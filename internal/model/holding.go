package model

// Holding is a holding record as reported by the brokerage backend.
// Quantities and prices are in a single currency unit and are never rounded
// before aggregation.
type Holding struct {
	Name   string  `json:"name"`
	Qty    float64 `json:"qty"`
	Avg    float64 `json:"avg"`
	Price  float64 `json:"price"`
	Day    string  `json:"day,omitempty"`
	Net    string  `json:"net,omitempty"`
	IsLoss bool    `json:"isLoss"`
}

// Position is an intraday position record. It is valued exactly like a Holding.
type Position struct {
	Holding
	Product string `json:"product,omitempty"`
}

// Valuation is derived from a Holding and a live price on every read.
type Valuation struct {
	CurrentValue   float64 `json:"currentValue"`
	InvestedValue  float64 `json:"investedValue"`
	PnL            float64 `json:"pnl"`
	IsProfit       bool    `json:"isProfit"`
	DayChangeLabel string  `json:"dayChange"`
	IsLoss         bool    `json:"isLoss"`
}

// Aggregate summarises the valuations of a set of records.
type Aggregate struct {
	TotalInvested     float64 `json:"totalInvested"`
	TotalCurrentValue float64 `json:"totalCurrentValue"`
	TotalPnL          float64 `json:"totalPnl"`
	PnLPercent        float64 `json:"pnlPercent"`
	IsProfit          bool    `json:"isProfit"`
}

// ValuedHolding is a holding together with its display-rounded valuation.
type ValuedHolding struct {
	Holding
	Valuation Valuation `json:"valuation"`
}

// ValuedPosition is a position together with its display-rounded valuation.
type ValuedPosition struct {
	Position
	Valuation Valuation `json:"valuation"`
}

// SnapshotSource tells the dashboard where a read-path response came from.
type SnapshotSource string

const (
	SourceLive  SnapshotSource = "live"
	SourceCache SnapshotSource = "cache"
	SourceEmpty SnapshotSource = "empty"
)

// HoldingsView is the response of the holdings endpoint.
type HoldingsView struct {
	AllHoldings []ValuedHolding `json:"allHoldings"`
	Summary     Aggregate       `json:"summary"`
	Source      SnapshotSource  `json:"source"`
}

// PositionsView is the response of the positions endpoint.
type PositionsView struct {
	AllPositions []ValuedPosition `json:"allPositions"`
	Summary      Aggregate        `json:"summary"`
	Source       SnapshotSource   `json:"source"`
}
