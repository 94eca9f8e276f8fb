package broker

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
)

// Number decodes a JSON number leniently. Numeric strings are parsed,
// null and anything unparseable decode to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = Number(f)
	return nil
}

// Flag decodes a JSON boolean leniently. "true" strings are accepted,
// anything else decodes to false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*f = Flag(strings.EqualFold(s, "true"))
	return nil
}

// Record is a holding or position as sent by the brokerage backend.
type Record struct {
	Name    string `json:"name"`
	Qty     Number `json:"qty"`
	Avg     Number `json:"avg"`
	Price   Number `json:"price"`
	Day     string `json:"day"`
	Net     string `json:"net"`
	IsLoss  Flag   `json:"isLoss"`
	Product string `json:"product"`
}

// Holding converts r to the domain record.
func (r Record) Holding() model.Holding {
	return model.Holding{
		Name:   r.Name,
		Qty:    float64(r.Qty),
		Avg:    float64(r.Avg),
		Price:  float64(r.Price),
		Day:    r.Day,
		Net:    r.Net,
		IsLoss: bool(r.IsLoss),
	}
}

// Position converts r to the domain position.
func (r Record) Position() model.Position {
	return model.Position{Holding: r.Holding(), Product: r.Product}
}

// OrderRecord is an order as sent by the brokerage backend.
type OrderRecord struct {
	Name  string `json:"name"`
	Qty   Number `json:"qty"`
	Price Number `json:"price"`
	Mode  string `json:"mode"`
}

// Order converts o to the domain order. The mode is upper-cased.
func (o OrderRecord) Order() model.Order {
	return model.Order{
		Name:  o.Name,
		Qty:   float64(o.Qty),
		Price: float64(o.Price),
		Mode:  model.OrderMode(strings.ToUpper(o.Mode)),
	}
}

// HoldingsResponse is the body of GET /allHoldings.
type HoldingsResponse struct {
	AllHoldings []Record `json:"allHoldings"`
}

// PositionsResponse is the body of GET /allPositions.
type PositionsResponse struct {
	AllPositions []Record `json:"allPositions"`
}

// OrdersResponse is the body of GET /allOrders.
type OrdersResponse struct {
	AllOrders []OrderRecord `json:"allOrders"`
}

// NewOrderRequest is the body of POST /newOrder.
type NewOrderRequest struct {
	Name  string  `json:"name"`
	Qty   float64 `json:"qty"`
	Price float64 `json:"price"`
	Mode  string  `json:"mode"`
}

// errorBody is the error envelope of the brokerage backend.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
}

// reason extracts a human-readable reason, preferring "error" over "message".
func (b errorBody) reason() string {
	for _, raw := range []json.RawMessage{b.Error, b.Message} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		// nested {"message": "..."}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}
