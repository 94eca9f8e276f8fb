// Package valuation derives profit/loss and current value from holding and
// position records. Every function is pure: nothing is cached and inputs are
// never mutated.
//
// Missing or malformed numeric fields (NaN, ±Inf, negative quantities or
// prices) are treated as 0 rather than rejected. Rounding happens only in
// Round, which callers apply to final values at presentation time.
package valuation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
)

// DayChangeNotAvailable is the day change label used when a record carries none.
const DayChangeNotAvailable = "N/A"

// Valuate values record against livePrice.
//
// The intraday classification (IsLoss, DayChangeLabel) is copied from the
// record and is independent of the sign of PnL.
func Valuate(record model.Holding, livePrice float64) model.Valuation {
	qty := sanitize(record.Qty)
	current := sanitize(livePrice) * qty
	invested := sanitize(record.Avg) * qty
	pnl := current - invested

	label := record.Day
	if label == "" {
		label = DayChangeNotAvailable
	}

	return model.Valuation{
		CurrentValue:   current,
		InvestedValue:  invested,
		PnL:            pnl,
		IsProfit:       pnl >= 0,
		DayChangeLabel: label,
		IsLoss:         record.IsLoss,
	}
}

// ValuateRecord values record against its own reported price.
func ValuateRecord(record model.Holding) model.Valuation {
	return Valuate(record, record.Price)
}

// Aggregate sums the valuations of records at their reported prices.
// PnLPercent is 0 when nothing is invested.
func Aggregate(records []model.Holding) model.Aggregate {
	var agg model.Aggregate
	for _, r := range records {
		v := ValuateRecord(r)
		agg.TotalInvested += v.InvestedValue
		agg.TotalCurrentValue += v.CurrentValue
	}
	agg.TotalPnL = agg.TotalCurrentValue - agg.TotalInvested
	agg.IsProfit = agg.TotalPnL >= 0
	if agg.TotalInvested > 0 {
		agg.PnLPercent = agg.TotalPnL / agg.TotalInvested * 100
	}
	return agg
}

// AggregatePositions is Aggregate for positions.
func AggregatePositions(positions []model.Position) model.Aggregate {
	records := make([]model.Holding, len(positions))
	for i, p := range positions {
		records[i] = p.Holding
	}
	return Aggregate(records)
}

// Round rounds a final monetary value to 2 decimals for display.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundValuation returns v with every monetary field rounded for display.
// PnL is rounded from the exact difference, not from the rounded terms.
func RoundValuation(v model.Valuation) model.Valuation {
	v.CurrentValue = Round(v.CurrentValue)
	v.InvestedValue = Round(v.InvestedValue)
	v.PnL = Round(v.PnL)
	return v
}

// RoundAggregate returns a with every field rounded for display.
func RoundAggregate(a model.Aggregate) model.Aggregate {
	a.TotalInvested = Round(a.TotalInvested)
	a.TotalCurrentValue = Round(a.TotalCurrentValue)
	a.TotalPnL = Round(a.TotalPnL)
	a.PnLPercent = Round(a.PnLPercent)
	return a
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
